package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RedemptionOrder snapshots the prizes an agent redeemed in one action. Items
// is a jsonb copy of the awarded rows at redemption time.
type RedemptionOrder struct {
	gorm.Model
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID    uuid.UUID       `gorm:"type:uuid;not null;index;column:agent_id" json:"agent_id"`
	ItemCount  int             `gorm:"not null;column:item_count" json:"item_count"`
	TotalValue decimal.Decimal `gorm:"type:numeric(14,2);not null;column:total_value" json:"total_value"`
	Items      datatypes.JSON  `gorm:"type:jsonb;column:items" json:"items"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (RedemptionOrder) TableName() string {
	return "redemption_order"
}
