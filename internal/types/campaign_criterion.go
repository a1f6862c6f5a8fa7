package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractTypeEither is the wildcard contract filter: a criterion carrying it
// accepts both new-business and renewal policies.
const ContractTypeEither = "either"

type CampaignCriterion struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index;column:campaign_id" json:"campaign_id"`

	// Optional filters; empty string means the filter is unset and passes.
	PolicyType   string `gorm:"column:policy_type" json:"policy_type,omitempty"`
	ContractType string `gorm:"column:contract_type" json:"contract_type,omitempty"`

	TargetType  string          `gorm:"not null;column:target_type" json:"target_type"`
	TargetValue decimal.Decimal `gorm:"type:numeric(14,2);not null;column:target_value" json:"target_value"`

	// Floor applied per policy before it counts toward the criterion.
	MinValuePerPolicy *decimal.Decimal `gorm:"type:numeric(14,2);column:min_value_per_policy" json:"min_value_per_policy,omitempty"`

	OrderIndex int `gorm:"not null;default:0;column:order_index" json:"order_index"`

	CurrentValue       decimal.Decimal `gorm:"type:numeric(14,2);column:current_value" json:"current_value"`
	ProgressPercentage float64         `gorm:"column:progress_percentage" json:"progress_percentage"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CampaignCriterion) TableName() string {
	return "campaign_criterion"
}
