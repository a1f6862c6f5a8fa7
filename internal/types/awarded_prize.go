package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PrizeStatusAvailable = "available"
	PrizeStatusDelivered = "delivered"
)

// AwardedPrize materializes a catalog prize for a completed campaign. Name,
// Value and Category are snapshots taken at award time so later catalog edits
// never alter an awarded record. Delivered rows are permanent; only available
// rows may be revoked.
//
// The (campaign_id, prize_id) unique index makes a racing duplicate award
// collapse into a unique violation the repo absorbs.
type AwardedPrize struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_awarded_prize_campaign_prize;column:campaign_id" json:"campaign_id"`
	PrizeID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_awarded_prize_campaign_prize;column:prize_id" json:"prize_id"`
	AgentID    uuid.UUID `gorm:"type:uuid;not null;index;column:agent_id" json:"agent_id"`

	Name     string          `gorm:"not null;column:name" json:"name"`
	Value    decimal.Decimal `gorm:"type:numeric(14,2);not null;column:value" json:"value"`
	Category string          `gorm:"column:category" json:"category"`

	Status            string     `gorm:"not null;default:'available';column:status" json:"status"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	RedemptionOrderID *uuid.UUID `gorm:"type:uuid;index;column:redemption_order_id" json:"redemption_order_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AwardedPrize) TableName() string {
	return "awarded_prize"
}
