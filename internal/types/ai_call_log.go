package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AICallLog records the outcome of every completion pipeline run for
// diagnostics. Prompt text is not stored; only mode, outcome and counters.
type AICallLog struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Mode            string         `gorm:"column:mode;not null" json:"mode"`
	Model           string         `gorm:"column:model" json:"model"`
	Success         bool           `gorm:"column:success;not null" json:"success"`
	Error           string         `gorm:"column:error" json:"error"`
	Attempts        int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ContractRetries int            `gorm:"column:contract_retries;not null;default:0" json:"contract_retries"`
	LatencyMS       int64          `gorm:"column:latency_ms;not null;default:0" json:"latency_ms"`
	Detail          datatypes.JSON `gorm:"type:jsonb;column:detail" json:"detail"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }

func (l *AICallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
