package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumawell/luma-backend/internal/logger"
)

// RuleThresholds are the tunables behind the rule registry. The defaults
// below are the shipped behavior; a YAML file can override any subset.
type RuleThresholds struct {
	// Wellness checkpoint: fires when at least LowMoodCount of the last
	// LowMoodWindow checkins are at or below LowMoodValue.
	LowMoodValue  int `yaml:"low_mood_value"`
	LowMoodCount  int `yaml:"low_mood_count"`
	LowMoodWindow int `yaml:"low_mood_window"`

	// Goal risk: fires when at least StalledGoalMin goals are active with
	// no goal progress events for StalledGoalQuietDays.
	StalledGoalMin       int `yaml:"stalled_goal_min"`
	StalledGoalQuietDays int `yaml:"stalled_goal_quiet_days"`

	// Engagement recovery: fires after InactivityDays without any events.
	InactivityDays int `yaml:"inactivity_days"`

	// Journal reminder: fires when a user with at least one prior entry
	// has logged nothing journal-related for JournalLapseDays.
	JournalLapseDays int `yaml:"journal_lapse_days"`

	// Chat engagement: fires when other activity exists but no chat
	// events for ChatQuietDays.
	ChatQuietDays int `yaml:"chat_quiet_days"`

	// Goal celebration: fires at a streak of CelebrateStreakDays with at
	// least one active goal.
	CelebrateStreakDays int `yaml:"celebrate_streak_days"`

	// Context risk flag: goal_overload at this many active goals.
	GoalOverloadCount int `yaml:"goal_overload_count"`

	// Nudge lifetime and per-rule re-fire suppression after a dismissal.
	NudgeTTLHours int `yaml:"nudge_ttl_hours"`
	CooldownHours int `yaml:"cooldown_hours"`
}

func DefaultRuleThresholds() RuleThresholds {
	return RuleThresholds{
		LowMoodValue:         2,
		LowMoodCount:         3,
		LowMoodWindow:        5,
		StalledGoalMin:       3,
		StalledGoalQuietDays: 5,
		InactivityDays:       7,
		JournalLapseDays:     3,
		ChatQuietDays:        5,
		CelebrateStreakDays:  3,
		GoalOverloadCount:    5,
		NudgeTTLHours:        72,
		CooldownHours:        48,
	}
}

// LoadRuleThresholds reads overrides from path when it is non-empty.
// Unset fields keep their defaults.
func LoadRuleThresholds(path string, log *logger.Logger) (RuleThresholds, error) {
	t := DefaultRuleThresholds()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read rule thresholds: %w", err)
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("parse rule thresholds: %w", err)
	}
	if log != nil {
		log.Info("Loaded rule threshold overrides", "path", path)
	}
	return t, nil
}
