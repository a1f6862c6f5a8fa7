package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type PolicyCampaignLinkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, links []*types.PolicyCampaignLink) ([]*types.PolicyCampaignLink, error)
	GetByID(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) (*types.PolicyCampaignLink, error)
	GetActiveByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.PolicyCampaignLink, error)
	ActiveExists(ctx context.Context, tx *gorm.DB, policyID, campaignID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) error
}

type policyCampaignLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyCampaignLinkRepo(db *gorm.DB, baseLog *logger.Logger) PolicyCampaignLinkRepo {
	return &policyCampaignLinkRepo{db: db, log: baseLog.With("repo", "PolicyCampaignLinkRepo")}
}

func (lr *policyCampaignLinkRepo) Create(ctx context.Context, tx *gorm.DB, links []*types.PolicyCampaignLink) ([]*types.PolicyCampaignLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if len(links) == 0 {
		return []*types.PolicyCampaignLink{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (lr *policyCampaignLinkRepo) GetByID(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) (*types.PolicyCampaignLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var result types.PolicyCampaignLink
	err := transaction.WithContext(ctx).
		Where("id = ?", linkID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (lr *policyCampaignLinkRepo) GetActiveByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.PolicyCampaignLink, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var results []*types.PolicyCampaignLink
	if err := transaction.WithContext(ctx).
		Where("campaign_id = ? AND active = ?", campaignID, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *policyCampaignLinkRepo) ActiveExists(ctx context.Context, tx *gorm.DB, policyID, campaignID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PolicyCampaignLink{}).
		Where("policy_id = ? AND campaign_id = ? AND active = ?", policyID, campaignID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (lr *policyCampaignLinkRepo) Deactivate(ctx context.Context, tx *gorm.DB, linkID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PolicyCampaignLink{}).
		Where("id = ?", linkID).
		Update("active", false).Error
}
