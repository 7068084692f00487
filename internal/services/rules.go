package services

import (
	"fmt"
	"time"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

// RuleInput is everything a rule may look at. Rules are pure functions of
// this input; anything stateful (dedup, cooldowns) lives in the store.
type RuleInput struct {
	Context *ContextSnapshot
	// Events in the context window phase, newest first.
	Events []*types.UserEvent
	Now    time.Time
}

// NudgeDraft is the optional output of a rule.
type NudgeDraft struct {
	Priority string
	Title    string
	Message  string
	CTALabel string
	CTARoute string
}

type Rule struct {
	Name     string
	Surface  string
	Category string
	// Cooldown suppresses re-firing while a dismissal of this rule is
	// younger than this.
	Cooldown time.Duration
	TTL      time.Duration
	Eval     func(in RuleInput) *NudgeDraft
}

// evalRule isolates a single rule: a panic inside Eval is logged and
// treated as "did not fire" so one bad rule never aborts the pass.
func evalRule(log *logger.Logger, rule Rule, in RuleInput) (draft *NudgeDraft) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("rule panicked, skipping", "rule", rule.Name, "panic", fmt.Sprintf("%v", r))
			draft = nil
		}
	}()
	return rule.Eval(in)
}

// EvaluateRegistry runs every rule and materializes drafts into nudge rows
// (owner left unset). Dismissal cooldowns are applied here; the dedup
// against currently-pending nudges is the store's job.
func EvaluateRegistry(log *logger.Logger, rules []Rule, in RuleInput, lastDismissed map[string]time.Time) []*types.Nudge {
	var out []*types.Nudge
	for _, rule := range rules {
		if last, ok := lastDismissed[rule.Name]; ok && in.Now.Sub(last) < rule.Cooldown {
			continue
		}
		draft := evalRule(log, rule, in)
		if draft == nil {
			continue
		}
		priority := draft.Priority
		if priority == "" {
			priority = types.PriorityLow
		}
		out = append(out, &types.Nudge{
			Surface:      rule.Surface,
			Category:     rule.Category,
			Priority:     priority,
			PriorityRank: types.PriorityRank(priority),
			Title:        draft.Title,
			Message:      draft.Message,
			CTALabel:     draft.CTALabel,
			CTARoute:     draft.CTARoute,
			RuleName:     rule.Name,
			Status:       types.NudgeStatusPending,
			ExpiresAt:    in.Now.Add(rule.TTL),
		})
	}
	return out
}

// DefaultRules builds the shipped registry with the given thresholds.
func DefaultRules(t RuleThresholds) []Rule {
	ttl := time.Duration(t.NudgeTTLHours) * time.Hour
	cooldown := time.Duration(t.CooldownHours) * time.Hour

	return []Rule{
		{
			Name:     "wellness_checkpoint_low_mood",
			Surface:  types.SurfaceHome,
			Category: types.NudgeCategoryWellness,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if in.Context == nil || !in.Context.HasRisk(RiskSustainedLowMood) {
					return nil
				}
				return &NudgeDraft{
					Priority: types.PriorityHigh,
					Title:    "Checking in with you",
					Message:  "Your recent mood check-ins have been on the low side. Taking a few minutes for yourself today might help.",
					CTALabel: "Do a check-in",
					CTARoute: "/tools",
				}
			},
		},
		{
			Name:     "risk_mitigation_stalled_goals",
			Surface:  types.SurfaceGoals,
			Category: types.NudgeCategoryRiskMitigation,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if in.Context == nil || in.Context.Momentum.ActiveGoalsCount < t.StalledGoalMin {
					return nil
				}
				quiet := time.Duration(t.StalledGoalQuietDays) * 24 * time.Hour
				for _, e := range in.Events {
					if e.Type != "goal_progress_logged" && e.Type != "goal_completed" {
						continue
					}
					if in.Now.Sub(e.CreatedAt) < quiet {
						return nil
					}
				}
				priority := types.PriorityMedium
				if in.Context.HasRisk(RiskGoalOverload) {
					priority = types.PriorityHigh
				}
				return &NudgeDraft{
					Priority: priority,
					Title:    "Your goals could use a look",
					Message:  fmt.Sprintf("You have %d active goals with no recent progress. Picking one small step might get things moving.", in.Context.Momentum.ActiveGoalsCount),
					CTALabel: "Review goals",
					CTARoute: "/goals",
				}
			},
		},
		{
			Name:     "engagement_recovery_inactive",
			Surface:  types.SurfaceHome,
			Category: types.NudgeCategoryEngagement,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if in.Context == nil || !in.Context.HasRisk(RiskDisengagement) {
					return nil
				}
				return &NudgeDraft{
					Priority: types.PriorityMedium,
					Title:    "Welcome back",
					Message:  "It has been a while. A quick mood check-in is an easy way to pick things back up.",
					CTALabel: "Check in",
					CTARoute: "/dashboard",
				}
			},
		},
		{
			Name:     "journal_reminder_lapsed",
			Surface:  types.SurfaceJournal,
			Category: types.NudgeCategoryJournalReminder,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				lapse := time.Duration(t.JournalLapseDays) * 24 * time.Hour
				var lastJournal time.Time
				for _, e := range in.Events {
					if e.SourceFeature == types.FeatureJournal && e.CreatedAt.After(lastJournal) {
						lastJournal = e.CreatedAt
					}
				}
				if lastJournal.IsZero() {
					// Never journaled in the window; nothing to lapse from.
					return nil
				}
				if in.Now.Sub(lastJournal) < lapse {
					return nil
				}
				return &NudgeDraft{
					Priority: types.PriorityLow,
					Title:    "Your journal misses you",
					Message:  "It has been a few days since your last entry. Even a couple of sentences count.",
					CTALabel: "Write an entry",
					CTARoute: "/journal",
				}
			},
		},
		{
			Name:     "tool_suggestion_breathing",
			Surface:  types.SurfaceTools,
			Category: types.NudgeCategoryToolSuggestion,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if in.Context == nil || !in.Context.HasRisk(RiskSustainedLowMood) {
					return nil
				}
				return &NudgeDraft{
					Priority: types.PriorityMedium,
					Title:    "Try a breathing exercise",
					Message:  "A short guided breathing session can help when things feel heavy.",
					CTALabel: "Start breathing",
					CTARoute: "/tools/breathing",
				}
			},
		},
		{
			Name:     "chat_engagement_checkin",
			Surface:  types.SurfaceChat,
			Category: types.NudgeCategoryChatEngagement,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if len(in.Events) == 0 {
					return nil
				}
				if in.Context != nil && in.Context.HasRisk(RiskDisengagement) {
					// Fully inactive users get the recovery nudge instead.
					return nil
				}
				quiet := time.Duration(t.ChatQuietDays) * 24 * time.Hour
				for _, e := range in.Events {
					if e.SourceFeature != types.FeatureChat {
						continue
					}
					if in.Now.Sub(e.CreatedAt) < quiet {
						return nil
					}
				}
				return &NudgeDraft{
					Priority: types.PriorityLow,
					Title:    "Luma is here to talk",
					Message:  "You have been active lately but have not chatted in a while. Want to talk something through?",
					CTALabel: "Open chat",
					CTARoute: "/chat",
				}
			},
		},
		{
			Name:     "goal_progress_celebrate",
			Surface:  types.SurfaceGoals,
			Category: types.NudgeCategoryGoalProgress,
			Cooldown: cooldown,
			TTL:      ttl,
			Eval: func(in RuleInput) *NudgeDraft {
				if in.Context == nil {
					return nil
				}
				if in.Context.Momentum.StreakDays < t.CelebrateStreakDays || in.Context.Momentum.ActiveGoalsCount < 1 {
					return nil
				}
				return &NudgeDraft{
					Priority: types.PriorityLow,
					Title:    "You're on a streak",
					Message:  fmt.Sprintf("%d days in a row of showing up. Keep the momentum going on your goals.", in.Context.Momentum.StreakDays),
					CTALabel: "View goals",
					CTARoute: "/goals",
				}
			},
		},
	}
}
