package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/types"
)

// Lookback windows for derived context. The event log is the source of
// truth; a snapshot is recomputed from it on every read.
const (
	contextEventWindow   = 30 * 24 * time.Hour
	contextMoodWindow    = 14 * 24 * time.Hour
	contextJournalWindow = 14 * 24 * time.Hour
	contextEventLimit    = 500
	maxThemes            = 5
)

const (
	RiskSustainedLowMood = "sustained_low_mood"
	RiskGoalOverload     = "goal_overload"
	RiskDisengagement    = "disengagement"
)

const (
	MoodTrendImproving = "improving"
	MoodTrendDeclining = "declining"
	MoodTrendStable    = "stable"
	MoodTrendNone      = "none"
)

type Momentum struct {
	StreakDays       int `json:"streak_days"`
	ActiveGoalsCount int `json:"active_goals_count"`
}

type MoodSummary struct {
	Avg   float64 `json:"avg"`
	Trend string  `json:"trend"`
}

type ContextSnapshot struct {
	Momentum       Momentum    `json:"momentum"`
	Mood           MoodSummary `json:"mood"`
	Themes         []string    `json:"themes"`
	Risks          []string    `json:"risks"`
	LastComputedAt time.Time   `json:"last_computed_at"`
}

func (c *ContextSnapshot) HasRisk(name string) bool {
	for _, r := range c.Risks {
		if r == name {
			return true
		}
	}
	return false
}

type ContextService interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*ContextSnapshot, error)
}

type contextService struct {
	db          *gorm.DB
	log         *logger.Logger
	eventRepo   repos.UserEventRepo
	goalRepo    repos.GoalRepo
	journalRepo repos.JournalEntryRepo
	moodRepo    repos.MoodCheckinRepo
	thresholds  RuleThresholds
}

func NewContextService(
	db *gorm.DB,
	baseLog *logger.Logger,
	eventRepo repos.UserEventRepo,
	goalRepo repos.GoalRepo,
	journalRepo repos.JournalEntryRepo,
	moodRepo repos.MoodCheckinRepo,
	thresholds RuleThresholds,
) ContextService {
	return &contextService{
		db:          db,
		log:         baseLog.With("service", "ContextService"),
		eventRepo:   eventRepo,
		goalRepo:    goalRepo,
		journalRepo: journalRepo,
		moodRepo:    moodRepo,
		thresholds:  thresholds,
	}
}

func (s *contextService) Snapshot(ctx context.Context, userID uuid.UUID) (*ContextSnapshot, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	now := time.Now().UTC()

	events, err := s.eventRepo.GetRecentByUserID(ctx, nil, userID, now.Add(-contextEventWindow), contextEventLimit)
	if err != nil {
		s.log.Warn("event read failed", "error", err)
		return nil, apierr.Upstream(err)
	}
	checkins, err := s.moodRepo.GetRecentByUserID(ctx, nil, userID, now.Add(-contextMoodWindow), 0)
	if err != nil {
		s.log.Warn("mood checkin read failed", "error", err)
		return nil, apierr.Upstream(err)
	}
	activeGoals, err := s.goalRepo.CountActiveByUserID(ctx, nil, userID)
	if err != nil {
		s.log.Warn("goal read failed", "error", err)
		return nil, apierr.Upstream(err)
	}
	entries, err := s.journalRepo.GetRecentByUserID(ctx, nil, userID, now.Add(-contextJournalWindow), 0)
	if err != nil {
		s.log.Warn("journal read failed", "error", err)
		return nil, apierr.Upstream(err)
	}
	// Dedicated query rather than the capped recent-events read: a busy
	// user's goal events must not fall off the end of the window.
	goalEvents, err := s.eventRepo.GetByUserAndTypesSince(ctx, nil, userID,
		[]string{"goal_created", "goal_completed", "goal_abandoned"}, now.Add(-contextEventWindow))
	if err != nil {
		s.log.Warn("goal event read failed", "error", err)
		return nil, apierr.Upstream(err)
	}
	latest, err := s.eventRepo.LatestByUserID(ctx, nil, userID)
	if err != nil {
		s.log.Warn("latest event read failed", "error", err)
		return nil, apierr.Upstream(err)
	}

	moods := mergeMoodSeries(checkins, events, now.Add(-contextMoodWindow))

	snapshot := &ContextSnapshot{
		Momentum: Momentum{
			StreakDays:       streakDays(events, now),
			ActiveGoalsCount: int(activeGoals) + openGoalsFromEvents(goalEvents),
		},
		Mood:           moodSummary(moods),
		Themes:         deriveThemes(entries, events),
		Risks:          []string{},
		LastComputedAt: now,
	}

	t := s.thresholds
	if hasSustainedLowMood(moods, t.LowMoodValue, t.LowMoodCount, t.LowMoodWindow) {
		snapshot.Risks = append(snapshot.Risks, RiskSustainedLowMood)
	}
	if snapshot.Momentum.ActiveGoalsCount >= t.GoalOverloadCount {
		snapshot.Risks = append(snapshot.Risks, RiskGoalOverload)
	}
	// Disengagement needs prior activity to lapse from; a user who has
	// never logged anything is new, not disengaged.
	if latest != nil && int(now.Sub(latest.CreatedAt)/(24*time.Hour)) >= t.InactivityDays {
		snapshot.Risks = append(snapshot.Risks, RiskDisengagement)
	}

	return snapshot, nil
}

// streakDays counts consecutive calendar days, ending today, with at least
// one event. A day without activity breaks the streak.
func streakDays(events []*types.UserEvent, now time.Time) int {
	if len(events) == 0 {
		return 0
	}
	byDay := map[string]bool{}
	for _, e := range events {
		byDay[e.CreatedAt.UTC().Format("2006-01-02")] = true
	}
	streak := 0
	for d := 0; ; d++ {
		day := now.AddDate(0, 0, -d).Format("2006-01-02")
		if !byDay[day] {
			break
		}
		streak++
	}
	return streak
}

type moodPoint struct {
	value int
	at    time.Time
}

// mergeMoodSeries combines stored checkins with raw mood_checkin_completed
// events so clients that only hit the event endpoint still move the
// aggregate. Events carrying a source_id mirror a checkin row already in
// the series and are skipped. Result is newest first.
func mergeMoodSeries(checkins []*types.MoodCheckin, events []*types.UserEvent, since time.Time) []moodPoint {
	points := make([]moodPoint, 0, len(checkins))
	for _, c := range checkins {
		points = append(points, moodPoint{value: c.Value, at: c.CreatedAt})
	}
	for _, e := range events {
		if e.Type != "mood_checkin_completed" || e.SourceID != nil {
			continue
		}
		if e.CreatedAt.Before(since) || len(e.Data) == 0 {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(e.Data, &data); err != nil {
			continue
		}
		if v, ok := data["mood_value"].(float64); ok && v >= 1 && v <= 5 {
			points = append(points, moodPoint{value: int(v), at: e.CreatedAt})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at.After(points[j].at) })
	return points
}

func moodSummary(moods []moodPoint) MoodSummary {
	if len(moods) == 0 {
		return MoodSummary{Avg: 0, Trend: MoodTrendNone}
	}
	var total float64
	for _, m := range moods {
		total += float64(m.value)
	}
	avg := total / float64(len(moods))

	if len(moods) < 4 {
		return MoodSummary{Avg: avg, Trend: MoodTrendStable}
	}
	// Series is newest-first; compare the recent half against the older
	// half.
	mid := len(moods) / 2
	var recent, older float64
	for i, m := range moods {
		if i < mid {
			recent += float64(m.value)
		} else {
			older += float64(m.value)
		}
	}
	recentAvg := recent / float64(mid)
	olderAvg := older / float64(len(moods)-mid)
	switch {
	case recentAvg-olderAvg >= 0.5:
		return MoodSummary{Avg: avg, Trend: MoodTrendImproving}
	case olderAvg-recentAvg >= 0.5:
		return MoodSummary{Avg: avg, Trend: MoodTrendDeclining}
	default:
		return MoodSummary{Avg: avg, Trend: MoodTrendStable}
	}
}

func deriveThemes(entries []*types.JournalEntry, events []*types.UserEvent) []string {
	counts := map[string]int{}
	for _, entry := range entries {
		if len(entry.Themes) == 0 {
			continue
		}
		var themes []string
		if err := json.Unmarshal(entry.Themes, &themes); err != nil {
			continue
		}
		for _, t := range themes {
			if t != "" {
				counts[t]++
			}
		}
	}
	for _, e := range events {
		if len(e.Data) == 0 {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(e.Data, &data); err != nil {
			continue
		}
		if t, ok := data["theme"].(string); ok && t != "" {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return []string{}
	}
	themes := make([]string, 0, len(counts))
	for t := range counts {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool {
		if counts[themes[i]] != counts[themes[j]] {
			return counts[themes[i]] > counts[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	return themes
}

func hasSustainedLowMood(moods []moodPoint, lowValue, lowCount, window int) bool {
	if window <= 0 || lowCount <= 0 {
		return false
	}
	considered := moods
	if len(considered) > window {
		considered = considered[:window]
	}
	low := 0
	for _, m := range considered {
		if m.value <= lowValue {
			low++
		}
	}
	return low >= lowCount
}

// openGoalsFromEvents counts goals that exist only in the event log:
// goal_created without a source_id (so no goal row backs it) minus the
// terminal goal events reported the same way. Row-backed goals carry a
// source_id and are already counted from the goal table.
func openGoalsFromEvents(events []*types.UserEvent) int {
	open := 0
	for _, e := range events {
		if e.SourceID != nil {
			continue
		}
		switch e.Type {
		case "goal_created":
			open++
		case "goal_completed", "goal_abandoned":
			open--
		}
	}
	if open < 0 {
		return 0
	}
	return open
}
