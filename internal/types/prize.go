package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Prize is a catalog entry configured on a campaign: what the agent earns when
// the campaign completes.
type Prize struct {
	gorm.Model
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CampaignID uuid.UUID       `gorm:"type:uuid;not null;index;column:campaign_id" json:"campaign_id"`
	Name       string          `gorm:"not null;column:name" json:"name"`
	Value      decimal.Decimal `gorm:"type:numeric(14,2);not null;column:value" json:"value"`
	Category   string          `gorm:"column:category" json:"category"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (Prize) TableName() string {
	return "prize"
}
