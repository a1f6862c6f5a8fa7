package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PolicyCampaignLink records that a policy counts toward a campaign. Rows are
// soft-deleted on unlink (Active flips to false); Automatic distinguishes
// machine-created links from ones a human reviewer added.
type PolicyCampaignLink struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PolicyID   uuid.UUID `gorm:"type:uuid;not null;index;column:policy_id" json:"policy_id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index;column:campaign_id" json:"campaign_id"`
	Active     bool      `gorm:"not null;default:true;column:active" json:"active"`
	Automatic  bool      `gorm:"not null;default:false;column:automatic" json:"automatic"`

	AIConfidence *float64 `gorm:"column:ai_confidence" json:"ai_confidence,omitempty"`
	AIReasoning  string   `gorm:"column:ai_reasoning" json:"ai_reasoning,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PolicyCampaignLink) TableName() string {
	return "policy_campaign_link"
}
