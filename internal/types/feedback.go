package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	FeedbackThumbsUp         = "thumbs_up"
	FeedbackThumbsDown       = "thumbs_down"
	FeedbackRating           = "rating"
	FeedbackImplicitPositive = "implicit_positive"
)

const (
	FeedbackTargetAIResponse = "ai_response"
	FeedbackTargetNudge      = "nudge"
	FeedbackTargetSuggestion = "suggestion"
	FeedbackTargetFeatureUse = "feature_use"
)

// Feedback is immutable once recorded.
type Feedback struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	FeedbackType string    `gorm:"not null;column:feedback_type" json:"feedback_type"`
	TargetType   string    `gorm:"not null;index;column:target_type" json:"target_type"`
	TargetID     uuid.UUID `gorm:"type:uuid;not null;column:target_id" json:"target_id"`
	Rating       *int      `gorm:"column:rating" json:"rating,omitempty"`
	Comment      string    `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }
