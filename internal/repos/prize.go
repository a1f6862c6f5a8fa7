package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type PrizeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, prizes []*types.Prize) ([]*types.Prize, error)
	GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Prize, error)
}

type prizeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrizeRepo(db *gorm.DB, baseLog *logger.Logger) PrizeRepo {
	return &prizeRepo{db: db, log: baseLog.With("repo", "PrizeRepo")}
}

func (pr *prizeRepo) Create(ctx context.Context, tx *gorm.DB, prizes []*types.Prize) ([]*types.Prize, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(prizes) == 0 {
		return []*types.Prize{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&prizes).Error; err != nil {
		return nil, err
	}
	return prizes, nil
}

func (pr *prizeRepo) GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.Prize, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Prize
	if err := transaction.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
