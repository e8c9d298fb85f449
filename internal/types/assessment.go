package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assessment is one completed pre/post questionnaire. Responses holds the raw
// per-question answers and stays server-side: only the computed summary fields
// (average_score, response_count) ever reach the AI layer.
type Assessment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	AssessmentType string         `gorm:"column:assessment_type;not null" json:"assessment_type"`
	Responses      datatypes.JSON `gorm:"type:jsonb;column:responses" json:"responses"`
	AverageScore   float64        `gorm:"column:average_score;not null;default:0" json:"average_score"`
	ResponseCount  int            `gorm:"column:response_count;not null;default:0" json:"response_count"`
	CompletedAt    time.Time      `gorm:"column:completed_at;not null" json:"completed_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
