package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brokerpulse/incentive-backend/internal/clients/redis"
	"github.com/brokerpulse/incentive-backend/internal/db"
	"github.com/brokerpulse/incentive-backend/internal/handlers"
	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/middleware"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/server"
	"github.com/brokerpulse/incentive-backend/internal/services"
	"github.com/brokerpulse/incentive-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	port := utils.GetEnv("PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	txm := repos.NewTxManager(thePG)

	// Repos
	log.Info("Setting up Repos from main...")
	agentRepo := repos.NewAgentRepo(thePG, log)
	agentTokenRepo := repos.NewAgentTokenRepo(thePG, log)
	campaignRepo := repos.NewCampaignRepo(thePG, log)
	policyRepo := repos.NewPolicyRepo(thePG, log)
	linkRepo := repos.NewPolicyCampaignLinkRepo(thePG, log)
	prizeRepo := repos.NewPrizeRepo(thePG, log)
	awardedPrizeRepo := repos.NewAwardedPrizeRepo(thePG, log)
	redemptionOrderRepo := repos.NewRedemptionOrderRepo(thePG, log)
	classifierCallLogRepo := repos.NewClassifierCallLogRepo(thePG, log)

	// Clients
	textGenClient, err := services.NewTextGenClient(log)
	if err != nil {
		log.Warn("Text generation client unavailable, classifier will use the deterministic matcher", "error", err)
		textGenClient = nil
	}
	progressBus, err := redis.NewProgressBus(log)
	if err != nil {
		log.Warn("Redis progress bus unavailable, progress events will not be published", "error", err)
		progressBus = nil
	}
	if progressBus != nil {
		err := progressBus.StartForwarder(context.Background(), func(event redis.ProgressEvent) {
			log.Info("Campaign progress event",
				"campaign_id", event.CampaignID,
				"overall_percentage", event.OverallPercentage,
				"complete", event.Complete)
		})
		if err != nil {
			log.Warn("Failed to start progress forwarder", "error", err)
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(txm, log, agentRepo, agentTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	verificationService := services.NewVerificationService(log, campaignRepo, linkRepo, policyRepo)
	prizeLifecycleService := services.NewPrizeLifecycleService(txm, log, verificationService, campaignRepo, prizeRepo, awardedPrizeRepo)
	campaignService := services.NewCampaignService(txm, log, campaignRepo, prizeRepo, verificationService, prizeLifecycleService, progressBus)
	classifierService := services.NewClassifierService(log, textGenClient, classifierCallLogRepo)
	policyService := services.NewPolicyService(txm, log, policyRepo, campaignRepo, linkRepo, classifierService, campaignService)
	redemptionService := services.NewRedemptionService(txm, log, awardedPrizeRepo, redemptionOrderRepo)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	policyHandler := handlers.NewPolicyHandler(policyService)
	prizeHandler := handlers.NewPrizeHandler(campaignService, prizeLifecycleService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		CampaignHandler:   campaignHandler,
		PolicyHandler:     policyHandler,
		PrizeHandler:      prizeHandler,
		RedemptionHandler: redemptionHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
