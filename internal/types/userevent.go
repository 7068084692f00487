package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Source features allowed to log behavioral events.
const (
	FeatureChat      = "chat"
	FeatureGoals     = "goals"
	FeatureJournal   = "journal"
	FeatureTools     = "tools"
	FeatureDashboard = "dashboard"
)

// UserEvent is the append-only behavioral log. Rows are never updated or
// deleted once written.
type UserEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Type          string         `gorm:"column:type;not null;index" json:"event_type"`
	SourceFeature string         `gorm:"column:source_feature;not null;index" json:"source_feature"`
	SourceID      *uuid.UUID     `gorm:"type:uuid;column:source_id" json:"source_id,omitempty"`
	Data          datatypes.JSON `gorm:"type:jsonb;column:data" json:"event_data,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_event" }
