package types

import (
	"time"

	"github.com/google/uuid"
)

// MoodCheckin values run 1 (lowest) through 5 (highest).
type MoodCheckin struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Value     int       `gorm:"not null;column:value" json:"mood_value"`
	Note      string    `gorm:"column:note" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (MoodCheckin) TableName() string { return "mood_checkin" }
