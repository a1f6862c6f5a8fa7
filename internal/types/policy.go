package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Policy struct {
	gorm.Model
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID      uuid.UUID       `gorm:"type:uuid;not null;index;column:agent_id" json:"agent_id"`
	PolicyNumber string          `gorm:"not null;column:policy_number" json:"policy_number"`
	PolicyType   string          `gorm:"not null;column:policy_type" json:"policy_type"`
	ContractType string          `gorm:"not null;column:contract_type" json:"contract_type"`
	PremiumValue decimal.Decimal `gorm:"type:numeric(14,2);not null;column:premium_value" json:"premium_value"`
	Description  string          `gorm:"column:description" json:"description"`
	CreatedAt    time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (Policy) TableName() string {
	return "policy"
}
