package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumawell/luma-backend/internal/types"
)

func TestSnapshotEmptyUser(t *testing.T) {
	s := newServiceStack(t)
	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Momentum.StreakDays != 0 || snap.Momentum.ActiveGoalsCount != 0 {
		t.Fatalf("momentum = %+v, want zeros", snap.Momentum)
	}
	if snap.Mood.Trend != MoodTrendNone {
		t.Fatalf("mood trend = %q, want %q", snap.Mood.Trend, MoodTrendNone)
	}
	// A brand-new user has nothing to lapse from, so no risks yet.
	if len(snap.Risks) != 0 {
		t.Fatalf("risks = %v, want none", snap.Risks)
	}
}

func TestSnapshotDisengagementNeedsHistory(t *testing.T) {
	s := newServiceStack(t)
	ev := &types.UserEvent{
		ID:            uuid.New(),
		UserID:        s.userID,
		Type:          "tool_used",
		SourceFeature: types.FeatureTools,
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -10),
	}
	if err := s.db.Create(ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}

	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.HasRisk(RiskDisengagement) {
		t.Fatalf("risks = %v, want %s after 10 quiet days", snap.Risks, RiskDisengagement)
	}
}

func TestSnapshotReadYourWrites(t *testing.T) {
	s := newServiceStack(t)
	for i := 0; i < 5; i++ {
		s.logEvent(t, EventInput{
			Type:          "mood_checkin_completed",
			SourceFeature: types.FeatureDashboard,
			Data:          map[string]any{"mood_value": 2},
		})
	}

	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Mood.Avg != 2 {
		t.Fatalf("mood avg = %v, want 2", snap.Mood.Avg)
	}
	if !snap.HasRisk(RiskSustainedLowMood) {
		t.Fatalf("risks = %v, want %s present", snap.Risks, RiskSustainedLowMood)
	}
}

func TestSnapshotCountsActiveGoals(t *testing.T) {
	s := newServiceStack(t)
	s.seedActiveGoals(t, 3)
	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Momentum.ActiveGoalsCount != 3 {
		t.Fatalf("active goals = %d, want 3", snap.Momentum.ActiveGoalsCount)
	}
}

func TestSnapshotCountsEventOnlyGoals(t *testing.T) {
	s := newServiceStack(t)
	for i := 0; i < 3; i++ {
		s.logEvent(t, EventInput{Type: "goal_created", SourceFeature: types.FeatureGoals})
	}
	s.logEvent(t, EventInput{Type: "goal_completed", SourceFeature: types.FeatureGoals})

	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Momentum.ActiveGoalsCount != 2 {
		t.Fatalf("active goals = %d, want 2 from events alone", snap.Momentum.ActiveGoalsCount)
	}
}

func TestOpenGoalsFromEvents(t *testing.T) {
	sourceID := uuid.New()
	events := []*types.UserEvent{
		{Type: "goal_created"},
		{Type: "goal_created"},
		// Row-backed: already counted from the goal table.
		{Type: "goal_created", SourceID: &sourceID},
		{Type: "goal_abandoned"},
	}
	if got := openGoalsFromEvents(events); got != 1 {
		t.Fatalf("openGoalsFromEvents = %d, want 1", got)
	}
	// More completions than creations in the window clamps at zero.
	if got := openGoalsFromEvents([]*types.UserEvent{{Type: "goal_completed"}}); got != 0 {
		t.Fatalf("openGoalsFromEvents = %d, want 0", got)
	}
}

func TestSnapshotStreak(t *testing.T) {
	s := newServiceStack(t)
	now := time.Now().UTC()
	for _, daysAgo := range []int{0, 1, 2} {
		ev := &types.UserEvent{
			ID:            uuid.New(),
			UserID:        s.userID,
			Type:          "tool_used",
			SourceFeature: types.FeatureTools,
			CreatedAt:     now.AddDate(0, 0, -daysAgo),
		}
		if err := s.db.Create(ev).Error; err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Momentum.StreakDays != 3 {
		t.Fatalf("streak = %d, want 3", snap.Momentum.StreakDays)
	}
}

func TestSnapshotThemesFromJournal(t *testing.T) {
	s := newServiceStack(t)
	now := time.Now().UTC()
	for _, theme := range []string{"sleep", "sleep", "work"} {
		entry := &types.JournalEntry{
			ID:        uuid.New(),
			UserID:    s.userID,
			Content:   "entry",
			Themes:    []byte(`["` + theme + `"]`),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.db.Create(entry).Error; err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	snap, err := s.contextSvc.Snapshot(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Themes) == 0 || snap.Themes[0] != "sleep" {
		t.Fatalf("themes = %v, want sleep first", snap.Themes)
	}
}

func TestMoodSummaryTrend(t *testing.T) {
	now := time.Now().UTC()
	mk := func(values ...int) []moodPoint {
		points := make([]moodPoint, 0, len(values))
		for i, v := range values {
			points = append(points, moodPoint{value: v, at: now.Add(-time.Duration(i) * time.Hour)})
		}
		return points
	}

	cases := []struct {
		name string
		in   []moodPoint
		want string
	}{
		{name: "no_data", in: nil, want: MoodTrendNone},
		{name: "too_few_is_stable", in: mk(4, 4), want: MoodTrendStable},
		{name: "improving", in: mk(5, 5, 2, 2), want: MoodTrendImproving},
		{name: "declining", in: mk(2, 2, 5, 5), want: MoodTrendDeclining},
		{name: "flat", in: mk(3, 3, 3, 3), want: MoodTrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := moodSummary(tc.in).Trend
			if got != tc.want {
				t.Fatalf("moodSummary trend = %q, want %q", got, tc.want)
			}
		})
	}
}
