package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CampaignKindSimple    = "simple"
	CampaignKindComposite = "composite"

	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"

	TargetTypeQuantity = "quantity"
	TargetTypeValue    = "value"
)

// Campaign is an incentive program an agent works toward. CurrentValue and
// ProgressPercentage are advisory caches rewritten on every recomputation
// pass; completion decisions never read them.
type Campaign struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID uuid.UUID `gorm:"type:uuid;not null;index;column:agent_id" json:"agent_id"`
	Name    string    `gorm:"not null;column:name" json:"name"`
	Kind    string    `gorm:"not null;column:kind" json:"kind"`
	Status  string    `gorm:"not null;default:'active';column:status" json:"status"`

	// Policies registered before this instant never count toward the campaign.
	AcceptedAt time.Time `gorm:"not null;column:accepted_at" json:"accepted_at"`

	// Simple campaigns carry their single target inline; composite campaigns
	// carry a Criteria list instead.
	TargetType  string          `gorm:"column:target_type" json:"target_type,omitempty"`
	TargetValue decimal.Decimal `gorm:"type:numeric(14,2);column:target_value" json:"target_value"`

	CurrentValue       decimal.Decimal `gorm:"type:numeric(14,2);column:current_value" json:"current_value"`
	ProgressPercentage float64         `gorm:"column:progress_percentage" json:"progress_percentage"`

	Criteria []CampaignCriterion `gorm:"foreignKey:CampaignID" json:"criteria,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaign"
}
