package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/types"
)

func seedLowMood(t *testing.T, s *serviceStack) {
	t.Helper()
	for i := 0; i < 5; i++ {
		s.logEvent(t, EventInput{
			Type:          "mood_checkin_completed",
			SourceFeature: types.FeatureDashboard,
			Data:          map[string]any{"mood_value": 2},
		})
	}
}

func TestListPendingEvaluatesOnRead(t *testing.T) {
	s := newServiceStack(t)
	seedLowMood(t, s)

	nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if findNudge(nudges, "wellness_checkpoint_low_mood") == nil {
		t.Fatalf("wellness nudge missing on home surface, got %d nudges", len(nudges))
	}
	for _, n := range nudges {
		if n.Surface != types.SurfaceHome {
			t.Errorf("nudge %s for surface %q leaked onto home", n.RuleName, n.Surface)
		}
		if n.Status != types.NudgeStatusPending {
			t.Errorf("nudge %s status = %q, want pending", n.RuleName, n.Status)
		}
	}
}

func TestListPendingRejectsUnknownSurface(t *testing.T) {
	s := newServiceStack(t)
	_, err := s.nudgeSvc.ListPending(s.ctx, "sidebar")
	if !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("err = %v, want %s", err, apierr.CodeValidation)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	s := newServiceStack(t)
	seedLowMood(t, s)

	first, err := s.nudgeSvc.Evaluate(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	if first == 0 {
		t.Fatal("first Evaluate created nothing")
	}
	second, err := s.nudgeSvc.Evaluate(s.ctx, s.userID)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if second != 0 {
		t.Fatalf("second Evaluate created %d duplicates", second)
	}

	var count int64
	if err := s.db.Model(&types.Nudge{}).
		Where("user_id = ? AND rule_name = ? AND status = ?", s.userID, "wellness_checkpoint_low_mood", types.NudgeStatusPending).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("pending wellness nudges = %d, want 1", count)
	}
}

func TestCreateIgnoreDuplicatesAtStore(t *testing.T) {
	s := newServiceStack(t)
	now := time.Now().UTC()
	mk := func() *types.Nudge {
		return &types.Nudge{
			ID:           uuid.New(),
			UserID:       s.userID,
			Surface:      types.SurfaceHome,
			Category:     types.NudgeCategoryWellness,
			Priority:     types.PriorityHigh,
			PriorityRank: types.PriorityRank(types.PriorityHigh),
			Title:        "t",
			Message:      "m",
			RuleName:     "wellness_checkpoint_low_mood",
			Status:       types.NudgeStatusPending,
			ExpiresAt:    now.Add(time.Hour),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	created, err := s.nudgeRepo.CreateIgnoreDuplicates(s.ctx, nil, []*types.Nudge{mk()})
	if err != nil || created != 1 {
		t.Fatalf("first insert: created=%d err=%v", created, err)
	}
	created, err = s.nudgeRepo.CreateIgnoreDuplicates(s.ctx, nil, []*types.Nudge{mk()})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if created != 0 {
		t.Fatalf("second insert created %d, want 0", created)
	}
}

func TestAcceptLifecycle(t *testing.T) {
	s := newServiceStack(t)
	seedLowMood(t, s)
	if _, err := s.nudgeSvc.Evaluate(s.ctx, s.userID); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
	if err != nil || len(nudges) == 0 {
		t.Fatalf("ListPending: n=%d err=%v", len(nudges), err)
	}
	target := nudges[0]

	accepted, err := s.nudgeSvc.Accept(s.ctx, target.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != types.NudgeStatusAccepted {
		t.Fatalf("status = %q, want accepted", accepted.Status)
	}

	// Terminal states are final.
	if _, err := s.nudgeSvc.Dismiss(s.ctx, target.ID); !apierr.IsCode(err, apierr.CodeInvalidState) {
		t.Fatalf("dismiss after accept: err = %v, want %s", err, apierr.CodeInvalidState)
	}
	if _, err := s.nudgeSvc.Accept(s.ctx, target.ID); !apierr.IsCode(err, apierr.CodeInvalidState) {
		t.Fatalf("double accept: err = %v, want %s", err, apierr.CodeInvalidState)
	}

	// Accepted nudges leave the pending list.
	after, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
	if err != nil {
		t.Fatalf("ListPending after accept: %v", err)
	}
	for _, n := range after {
		if n.ID == target.ID {
			t.Fatal("accepted nudge still listed as pending")
		}
	}
}

func TestTransitionNotFound(t *testing.T) {
	s := newServiceStack(t)
	if _, err := s.nudgeSvc.Accept(s.ctx, uuid.New()); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("accept unknown id: err = %v, want %s", err, apierr.CodeNotFound)
	}
}

func TestTransitionOtherUsersNudgeIsNotFound(t *testing.T) {
	s := newServiceStack(t)
	otherID := seedUser(t, s.db)
	now := time.Now().UTC()
	n := &types.Nudge{
		ID:           uuid.New(),
		UserID:       otherID,
		Surface:      types.SurfaceHome,
		Category:     types.NudgeCategoryWellness,
		Priority:     types.PriorityLow,
		PriorityRank: types.PriorityRank(types.PriorityLow),
		Title:        "t",
		Message:      "m",
		RuleName:     "wellness_checkpoint_low_mood",
		Status:       types.NudgeStatusPending,
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.Create(n).Error; err != nil {
		t.Fatalf("seed nudge: %v", err)
	}

	// Ownership mismatch must not reveal that the nudge exists.
	if _, err := s.nudgeSvc.Dismiss(s.ctx, n.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("dismiss other user's nudge: err = %v, want %s", err, apierr.CodeNotFound)
	}
	var check types.Nudge
	if err := s.db.First(&check, "id = ?", n.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if check.Status != types.NudgeStatusPending {
		t.Fatalf("other user's nudge mutated to %q", check.Status)
	}
}

func TestExpiredNudgesAreHiddenAndSwept(t *testing.T) {
	s := newServiceStack(t)
	now := time.Now().UTC()
	expired := &types.Nudge{
		ID:           uuid.New(),
		UserID:       s.userID,
		Surface:      types.SurfaceHome,
		Category:     types.NudgeCategoryWellness,
		Priority:     types.PriorityHigh,
		PriorityRank: types.PriorityRank(types.PriorityHigh),
		Title:        "stale",
		Message:      "m",
		RuleName:     "engagement_recovery_inactive",
		Status:       types.NudgeStatusPending,
		ExpiresAt:    now.Add(-time.Hour),
		CreatedAt:    now.Add(-48 * time.Hour),
		UpdatedAt:    now.Add(-48 * time.Hour),
	}
	if err := s.db.Create(expired).Error; err != nil {
		t.Fatalf("seed expired nudge: %v", err)
	}

	nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	for _, n := range nudges {
		if n.ID == expired.ID {
			t.Fatal("expired nudge served to client")
		}
	}

	var check types.Nudge
	if err := s.db.First(&check, "id = ?", expired.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if check.Status != types.NudgeStatusExpired {
		t.Fatalf("expired nudge status = %q, want expired by sweep", check.Status)
	}
}

func TestRuleRefiresAfterPassiveExpiry(t *testing.T) {
	s := newServiceStack(t)
	seedLowMood(t, s)

	now := time.Now().UTC()
	stale := &types.Nudge{
		ID:           uuid.New(),
		UserID:       s.userID,
		Surface:      types.SurfaceHome,
		Category:     types.NudgeCategoryWellness,
		Priority:     types.PriorityHigh,
		PriorityRank: types.PriorityRank(types.PriorityHigh),
		Title:        "stale",
		Message:      "m",
		RuleName:     "wellness_checkpoint_low_mood",
		Status:       types.NudgeStatusPending,
		ExpiresAt:    now.Add(-time.Hour),
		CreatedAt:    now.Add(-48 * time.Hour),
		UpdatedAt:    now.Add(-48 * time.Hour),
	}
	if err := s.db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale nudge: %v", err)
	}

	// The condition still holds, so the rule must come back immediately:
	// the sweep clears the dedup slot before evaluation, and a TTL lapse is
	// not a dismissal, so no cooldown applies.
	for pass := 1; pass <= 2; pass++ {
		nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
		if err != nil {
			t.Fatalf("ListPending pass %d: %v", pass, err)
		}
		fresh := findNudge(nudges, "wellness_checkpoint_low_mood")
		if fresh == nil {
			t.Fatalf("pass %d: wellness rule did not re-fire after expiry", pass)
		}
		if fresh.ID == stale.ID {
			t.Fatalf("pass %d: expired nudge served instead of a fresh one", pass)
		}
	}

	var check types.Nudge
	if err := s.db.First(&check, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if check.Status != types.NudgeStatusExpired {
		t.Fatalf("stale nudge status = %q, want expired", check.Status)
	}
}

func TestStalledGoalsFireFromEventsOnly(t *testing.T) {
	s := newServiceStack(t)
	// Goals known only through the event log, no goal rows at all.
	for i := 0; i < 3; i++ {
		s.logEvent(t, EventInput{Type: "goal_created", SourceFeature: types.FeatureGoals})
	}

	nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceGoals)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	n := findNudge(nudges, "risk_mitigation_stalled_goals")
	if n == nil {
		t.Fatalf("no risk_mitigation nudge from event-only goals, got %d nudges", len(nudges))
	}
	if n.Category != types.NudgeCategoryRiskMitigation {
		t.Errorf("category = %q, want %q", n.Category, types.NudgeCategoryRiskMitigation)
	}
}

func TestNewUserGetsNoRecoveryNudge(t *testing.T) {
	s := newServiceStack(t)
	nudges, err := s.nudgeSvc.ListPending(s.ctx, types.SurfaceHome)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if n := findNudge(nudges, "engagement_recovery_inactive"); n != nil {
		t.Fatalf("brand-new user greeted with recovery nudge %q", n.Title)
	}
}

func TestListPendingOrdersByPriority(t *testing.T) {
	s := newServiceStack(t)
	now := time.Now().UTC()
	mk := func(rule, priority string, createdAt time.Time) *types.Nudge {
		return &types.Nudge{
			ID:           uuid.New(),
			UserID:       s.userID,
			Surface:      types.SurfaceHome,
			Category:     types.NudgeCategoryWellness,
			Priority:     priority,
			PriorityRank: types.PriorityRank(priority),
			Title:        rule,
			Message:      "m",
			RuleName:     rule,
			Status:       types.NudgeStatusPending,
			ExpiresAt:    now.Add(time.Hour),
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
	}
	for _, n := range []*types.Nudge{
		mk("rule_low", types.PriorityLow, now.Add(-time.Minute)),
		mk("rule_high", types.PriorityHigh, now.Add(-3*time.Minute)),
		mk("rule_medium", types.PriorityMedium, now.Add(-2*time.Minute)),
	} {
		if err := s.db.Create(n).Error; err != nil {
			t.Fatalf("seed nudge: %v", err)
		}
	}

	nudges, err := s.nudgeRepo.ListPending(s.ctx, nil, s.userID, types.SurfaceHome, now)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(nudges) != 3 {
		t.Fatalf("got %d nudges, want 3", len(nudges))
	}
	want := []string{"rule_high", "rule_medium", "rule_low"}
	for i, rule := range want {
		if nudges[i].RuleName != rule {
			t.Fatalf("position %d = %q, want %q (full order: %v)", i, nudges[i].RuleName, rule, want)
		}
	}
}
