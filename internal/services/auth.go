package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/repos"
	"github.com/brokerpulse/incentive-backend/internal/requestdata"
	"github.com/brokerpulse/incentive-backend/internal/types"
	"github.com/brokerpulse/incentive-backend/internal/utils"
)

type AuthService interface {
	Register(ctx context.Context, agent *types.Agent) error
	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	txm          repos.TxManager
	log          *logger.Logger
	agentRepo    repos.AgentRepo
	tokenRepo    repos.AgentTokenRepo
	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewAuthService(
	txm repos.TxManager,
	log *logger.Logger,
	agentRepo repos.AgentRepo,
	tokenRepo repos.AgentTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		txm:          txm,
		log:          log.With("service", "AuthService"),
		agentRepo:    agentRepo,
		tokenRepo:    tokenRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, agent *types.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent required")
	}
	agent.Email = utils.NormalizeEmail(agent.Email)
	if agent.Email == "" {
		return fmt.Errorf("email required")
	}
	if strings.TrimSpace(agent.FirstName) == "" || strings.TrimSpace(agent.LastName) == "" {
		return fmt.Errorf("first_name and last_name required")
	}
	exists, err := as.agentRepo.EmailExists(ctx, nil, agent.Email)
	if err != nil {
		return fmt.Errorf("failed to check agent email: %w", err)
	}
	if exists {
		return fmt.Errorf("email is already in use")
	}
	hashed, err := utils.HashPassword(agent.Password)
	if err != nil {
		return err
	}
	agent.Password = hashed
	agent.ID = uuid.New()
	if _, err := as.agentRepo.Create(ctx, nil, []*types.Agent{agent}); err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	return nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password required")
	}
	agents, err := as.agentRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return "", "", fmt.Errorf("failed to load agent: %w", err)
	}
	if len(agents) == 0 || agents[0] == nil {
		return "", "", fmt.Errorf("invalid credentials")
	}
	agent := agents[0]
	if err := utils.ComparePassword(agent.Password, password); err != nil {
		return "", "", fmt.Errorf("invalid credentials")
	}
	return as.issueTokens(ctx, agent)
}

func (as *authService) issueTokens(ctx context.Context, agent *types.Agent) (string, string, error) {
	access, err := as.signToken(agent, as.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := as.signToken(agent, as.refreshTTL)
	if err != nil {
		return "", "", err
	}

	err = as.txm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := as.tokenRepo.DeleteByAgentID(ctx, tx, agent.ID); err != nil {
			return err
		}
		_, err := as.tokenRepo.Create(ctx, tx, []*types.AgentToken{{
			ID:           uuid.New(),
			AgentID:      agent.ID,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}})
		return err
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return access, refresh, nil
}

func (as *authService) signToken(agent *types.Agent, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   agent.ID.String(),
		"email": agent.Email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) parseToken(tokenString string) (uuid.UUID, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	agentID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid token subject")
	}
	email, _ := claims["email"].(string)
	return agentID, email, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	agentID, _, err := as.parseToken(refreshToken)
	if err != nil {
		return "", "", err
	}
	tokens, err := as.tokenRepo.GetByAgentIDs(ctx, nil, []uuid.UUID{agentID})
	if err != nil {
		return "", "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	valid := false
	for _, row := range tokens {
		if row != nil && row.RefreshToken == refreshToken && row.ExpiresAt.After(time.Now()) {
			valid = true
			break
		}
	}
	if !valid {
		return "", "", fmt.Errorf("refresh token revoked or expired")
	}
	agents, err := as.agentRepo.GetByIDs(ctx, nil, []uuid.UUID{agentID})
	if err != nil || len(agents) == 0 {
		return "", "", fmt.Errorf("agent not found")
	}
	return as.issueTokens(ctx, agents[0])
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.AgentID == uuid.Nil {
		return fmt.Errorf("unauthorized")
	}
	return as.tokenRepo.DeleteByAgentID(ctx, nil, rd.AgentID)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	agentID, email, err := as.parseToken(tokenString)
	if err != nil {
		return ctx, err
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{AgentID: agentID, Email: email}), nil
}
