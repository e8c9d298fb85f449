package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIInsight is one generated observation persisted from the insights pipeline.
type AIInsight struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ChapterID    *int           `gorm:"column:chapter_id" json:"chapter_id,omitempty"`
	SectionID    *string        `gorm:"column:section_id" json:"section_id,omitempty"`
	InsightType  string         `gorm:"column:insight_type;not null" json:"insight_type"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	Confidence   float64        `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Acknowledged bool           `gorm:"column:acknowledged;not null;default:false" json:"acknowledged"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AIInsight) TableName() string { return "ai_insight" }

func (i *AIInsight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
