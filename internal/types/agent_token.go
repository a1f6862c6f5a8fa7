package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentToken struct {
	gorm.Model
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID      uuid.UUID `gorm:"type:uuid;not null;index;column:agent_id" json:"agent_id"`
	RefreshToken string    `gorm:"not null;column:refresh_token" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AgentToken) TableName() string {
	return "agent_token"
}
