package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type PolicyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error)
	GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Policy, error)
	GetByAgentIDSince(ctx context.Context, tx *gorm.DB, agentID uuid.UUID, since time.Time) ([]*types.Policy, error)
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{db: db, log: baseLog.With("repo", "PolicyRepo")}
}

func (pr *policyRepo) Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(policies) == 0 {
		return []*types.Policy{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

func (pr *policyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if len(policyIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", policyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if err := transaction.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *policyRepo) GetByAgentIDSince(ctx context.Context, tx *gorm.DB, agentID uuid.UUID, since time.Time) ([]*types.Policy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Policy
	if err := transaction.WithContext(ctx).
		Where("agent_id = ? AND created_at >= ?", agentID, since).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
