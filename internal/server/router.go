package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brokerpulse/incentive-backend/internal/handlers"
	"github.com/brokerpulse/incentive-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	CampaignHandler   *handlers.CampaignHandler
	PolicyHandler     *handlers.PolicyHandler
	PrizeHandler      *handlers.PrizeHandler
	RedemptionHandler *handlers.RedemptionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Campaigns
	protected.POST("/campaigns", cfg.CampaignHandler.Create)
	protected.GET("/campaigns", cfg.CampaignHandler.List)
	protected.GET("/campaigns/:id", cfg.CampaignHandler.Get)
	protected.POST("/campaigns/:id/cancel", cfg.CampaignHandler.Cancel)
	protected.POST("/campaigns/:id/recompute", cfg.CampaignHandler.Recompute)
	// Prizes
	protected.GET("/campaigns/:id/prizes", cfg.PrizeHandler.ListAwarded)
	protected.POST("/campaigns/:id/prizes/award", cfg.PrizeHandler.Award)
	protected.POST("/campaigns/:id/prizes/revoke", cfg.PrizeHandler.Revoke)
	// Policies
	protected.POST("/policies", cfg.PolicyHandler.Register)
	protected.GET("/policies", cfg.PolicyHandler.List)
	protected.POST("/policy-links", cfg.PolicyHandler.Link)
	protected.DELETE("/policy-links/:id", cfg.PolicyHandler.Unlink)
	// Redemption
	protected.GET("/prizes/available", cfg.RedemptionHandler.ListAvailable)
	protected.POST("/redemptions", cfg.RedemptionHandler.Redeem)
	protected.GET("/redemptions", cfg.RedemptionHandler.ListOrders)

	return router
}
