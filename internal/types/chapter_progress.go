package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChapterProgress tracks one (user, chapter, section) workbook unit. Chapters
// run 1..7, one per ACT principle plus intro/closing.
type ChapterProgress struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_chapter_section,unique" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ChapterID int            `gorm:"column:chapter_id;not null;index:idx_user_chapter_section,unique" json:"chapter_id"`
	SectionID string         `gorm:"column:section_id;not null;index:idx_user_chapter_section,unique" json:"section_id"`
	Completed bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	Responses datatypes.JSON `gorm:"type:jsonb;column:responses" json:"responses"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChapterProgress) TableName() string { return "chapter_progress" }

func (p *ChapterProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
