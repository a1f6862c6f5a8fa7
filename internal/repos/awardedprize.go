package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/brokerpulse/incentive-backend/internal/logger"
	"github.com/brokerpulse/incentive-backend/internal/types"
)

type AwardedPrizeRepo interface {
	// Create inserts awarded rows, absorbing a unique violation on
	// (campaign_id, prize_id): a racing duplicate award converges to the
	// winner's rows instead of erroring. Returns whether rows were inserted.
	Create(ctx context.Context, tx *gorm.DB, prizes []*types.AwardedPrize) (bool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AwardedPrize, error)
	GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.AwardedPrize, error)
	GetAvailableByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.AwardedPrize, error)
	CountByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error)
	DeleteAvailableByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error)
	// MarkDelivered only touches rows that are still available and reports
	// how many it updated; callers compare that against the selection size.
	MarkDelivered(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, orderID uuid.UUID, deliveredAt time.Time) (int64, error)
}

type awardedPrizeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAwardedPrizeRepo(db *gorm.DB, baseLog *logger.Logger) AwardedPrizeRepo {
	return &awardedPrizeRepo{db: db, log: baseLog.With("repo", "AwardedPrizeRepo")}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (ar *awardedPrizeRepo) Create(ctx context.Context, tx *gorm.DB, prizes []*types.AwardedPrize) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(prizes) == 0 {
		return false, nil
	}
	if err := transaction.WithContext(ctx).Create(&prizes).Error; err != nil {
		if isUniqueViolation(err) {
			ar.log.Warn("Duplicate award insert absorbed", "campaign_id", prizes[0].CampaignID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ar *awardedPrizeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.AwardedPrize, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AwardedPrize
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *awardedPrizeRepo) GetByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) ([]*types.AwardedPrize, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AwardedPrize
	if err := transaction.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *awardedPrizeRepo) GetAvailableByAgentID(ctx context.Context, tx *gorm.DB, agentID uuid.UUID) ([]*types.AwardedPrize, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AwardedPrize
	if err := transaction.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, types.PrizeStatusAvailable).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *awardedPrizeRepo) CountByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AwardedPrize{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *awardedPrizeRepo) DeleteAvailableByCampaignID(ctx context.Context, tx *gorm.DB, campaignID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	res := transaction.WithContext(ctx).
		Unscoped().
		Where("campaign_id = ? AND status = ?", campaignID, types.PrizeStatusAvailable).
		Delete(&types.AwardedPrize{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (ar *awardedPrizeRepo) MarkDelivered(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, orderID uuid.UUID, deliveredAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.AwardedPrize{}).
		Where("id IN ? AND status = ?", ids, types.PrizeStatusAvailable).
		Updates(map[string]interface{}{
			"status":              types.PrizeStatusDelivered,
			"delivered_at":        deliveredAt,
			"redemption_order_id": orderID,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
