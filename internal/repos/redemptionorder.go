package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type RedemptionOrderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, orders []*types.RedemptionOrder) ([]*types.RedemptionOrder, error)
	GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.RedemptionOrder, error)
}

type redemptionOrderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRedemptionOrderRepo(db *gorm.DB, baseLog *logger.Logger) RedemptionOrderRepo {
	return &redemptionOrderRepo{db: db, log: baseLog.With("repo", "RedemptionOrderRepo")}
}

func (rr *redemptionOrderRepo) Create(ctx context.Context, tx *gorm.DB, orders []*types.RedemptionOrder) ([]*types.RedemptionOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(orders) == 0 {
		return []*types.RedemptionOrder{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (rr *redemptionOrderRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.RedemptionOrder, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.RedemptionOrder
	if err := transaction.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
