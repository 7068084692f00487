package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JournalEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Content   string         `gorm:"not null;column:content" json:"content"`
	Themes    datatypes.JSON `gorm:"type:jsonb;column:themes" json:"themes,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (JournalEntry) TableName() string { return "journal_entry" }
