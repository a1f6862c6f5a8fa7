package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClassifierCallLog records every eligibility classification call to the
// text-generation service, including failures that fell back to the
// deterministic matcher.
type ClassifierCallLog struct {
	gorm.Model
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID   *uuid.UUID     `gorm:"type:uuid;index;column:agent_id" json:"agent_id,omitempty"`
	PolicyID  *uuid.UUID     `gorm:"type:uuid;index;column:policy_id" json:"policy_id,omitempty"`
	ModelName string         `gorm:"not null;column:model" json:"model"`
	Prompt    string         `gorm:"column:prompt" json:"prompt"`
	Response  string         `gorm:"column:response" json:"response"`
	Success   bool           `gorm:"not null;column:success" json:"success"`
	Fallback  bool           `gorm:"not null;default:false;column:fallback" json:"fallback"`
	Error     string         `gorm:"column:error" json:"error"`
	Usage     datatypes.JSON `gorm:"type:jsonb;column:usage" json:"usage"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ClassifierCallLog) TableName() string {
	return "classifier_call_log"
}
