package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type AgentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.Agent, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Agent, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, baseLog *logger.Logger) AgentRepo {
	return &agentRepo{db: db, log: baseLog.With("repo", "AgentRepo")}
}

func (ar *agentRepo) Create(ctx context.Context, tx *gorm.DB, agents []*types.Agent) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(agents) == 0 {
		return []*types.Agent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (ar *agentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, agentIDs []uuid.UUID) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Agent
	if len(agentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", agentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *agentRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.Agent, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Agent
	if len(emails) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ?", emails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *agentRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Agent{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
