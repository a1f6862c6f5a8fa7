package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type AgentTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tokens []*types.AgentToken) ([]*types.AgentToken, error)
	GetByAgentIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.AgentToken, error)
	DeleteByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) error
}

type agentTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentTokenRepo(db *gorm.DB, baseLog *logger.Logger) AgentTokenRepo {
	return &agentTokenRepo{db: db, log: baseLog.With("repo", "AgentTokenRepo")}
}

func (tr *agentTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*types.AgentToken) ([]*types.AgentToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(tokens) == 0 {
		return []*types.AgentToken{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (tr *agentTokenRepo) GetByAgentIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.AgentToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.AgentToken
	if len(agentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("agent_id IN ?", agentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *agentTokenRepo) DeleteByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("agent_id = ?", agentID).
		Delete(&types.AgentToken{}).Error
}
