package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type CampaignRepo interface {
	Create(ctx context.Context, tx *gorm.DB, campaigns []*types.Campaign) ([]*types.Campaign, error)
	GetByID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*types.Campaign, error)
	GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error)
	GetActiveByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, status string) error
	UpdateProgress(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, current decimal.Decimal, percentage float64) error
	UpdateCriterionProgress(ctx context.Context, tx *gorm.DB, criterionID uuid.UUID, current decimal.Decimal, percentage float64) error
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return &campaignRepo{db: db, log: baseLog.With("repo", "CampaignRepo")}
}

func (cr *campaignRepo) Create(ctx context.Context, tx *gorm.DB, campaigns []*types.Campaign) ([]*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(campaigns) == 0 {
		return []*types.Campaign{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (cr *campaignRepo) GetByID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Campaign
	err := transaction.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("id = ?", campaignID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (cr *campaignRepo) GetByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Campaign
	if err := transaction.WithContext(ctx).
		Preload("Criteria").
		Where("agent_id = ?", agentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) GetActiveByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.Campaign, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Campaign
	if err := transaction.WithContext(ctx).
		Preload("Criteria").
		Where("agent_id = ? AND status = ?", agentID, types.CampaignStatusActive).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *campaignRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", campaignID).
		Update("status", status).Error
}

func (cr *campaignRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID, current decimal.Decimal, percentage float64) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Campaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]interface{}{
			"current_value":       current,
			"progress_percentage": percentage,
		}).Error
}

func (cr *campaignRepo) UpdateCriterionProgress(ctx context.Context, tx *gorm.DB, criterionID uuid.UUID, current decimal.Decimal, percentage float64) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CampaignCriterion{}).
		Where("id = ?", criterionID).
		Updates(map[string]interface{}{
			"current_value":       current,
			"progress_percentage": percentage,
		}).Error
}
