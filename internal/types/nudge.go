package types

import (
	"time"

	"github.com/google/uuid"
)

// Nudge lifecycle states. Transitions are monotonic: pending is the only
// non-terminal state. Expired is distinct from dismissed so a TTL lapse is
// never mistaken for user feedback.
const (
	NudgeStatusPending   = "pending"
	NudgeStatusAccepted  = "accepted"
	NudgeStatusDismissed = "dismissed"
	NudgeStatusExpired   = "expired"
)

// Surfaces a nudge can be delivered to.
const (
	SurfaceHome    = "home"
	SurfaceGoals   = "goals"
	SurfaceJournal = "journal"
	SurfaceChat    = "chat"
	SurfaceTools   = "tools"
)

const (
	NudgeCategoryGoalProgress    = "goal_progress"
	NudgeCategoryJournalReminder = "journal_reminder"
	NudgeCategoryToolSuggestion  = "tool_suggestion"
	NudgeCategoryChatEngagement  = "chat_engagement"
	NudgeCategoryWellness        = "wellness_checkpoint"
	NudgeCategoryRiskMitigation  = "risk_mitigation"
	NudgeCategoryEngagement      = "engagement_recovery"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PriorityRank maps the priority enum to its sort weight (high first).
func PriorityRank(priority string) int {
	switch priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Nudge rows are never hard-deleted; terminal rows are kept for the
// dismissal feedback loop and audit.
type Nudge struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Surface      string    `gorm:"not null;index;column:surface" json:"surface"`
	Category     string    `gorm:"not null;column:category" json:"category"`
	Priority     string    `gorm:"not null;column:priority" json:"priority"`
	PriorityRank int       `gorm:"not null;default:0;column:priority_rank" json:"-"`
	Title        string    `gorm:"not null;column:title" json:"title"`
	Message      string    `gorm:"not null;column:message" json:"message"`
	CTALabel     string    `gorm:"column:cta_label" json:"cta_label,omitempty"`
	CTARoute     string    `gorm:"column:cta_route" json:"cta_route,omitempty"`
	RuleName     string    `gorm:"not null;index;column:rule_name" json:"rule_name"`
	Status       string    `gorm:"not null;default:pending;index;column:status" json:"status"`
	ExpiresAt    time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Nudge) TableName() string { return "nudge" }
