package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationMessage is one turn in a user's support conversation. Rows are
// append-only: no update path exists, messages are never edited or removed.
type ConversationMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Role        string    `gorm:"column:role;not null" json:"role"`
	Content     string    `gorm:"column:content;not null" json:"content"`
	Placeholder bool      `gorm:"column:placeholder;not null;default:false" json:"placeholder"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (ConversationMessage) TableName() string { return "conversation_message" }

func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
