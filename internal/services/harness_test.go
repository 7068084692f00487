package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/requestdata"
	"github.com/lumawell/luma-backend/internal/types"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// newTestDB opens an isolated in-memory sqlite database with the full
// schema, including the partial unique index that backs nudge dedup.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.UserEvent{},
		&types.Nudge{},
		&types.Feedback{},
		&types.Goal{},
		&types.JournalEntry{},
		&types.MoodCheckin{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_nudge_active_rule_surface
		ON "nudge" ("user_id", "rule_name", "surface")
		WHERE "status" = 'pending'
	`).Error; err != nil {
		t.Fatalf("create dedup index: %v", err)
	}
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB) uuid.UUID {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("%s@example.com", uuid.New()),
		Password:  "irrelevant",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func authedCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

// newServiceStack wires the master agent services against a fresh test
// database, with no redis gate so every read evaluates.
type serviceStack struct {
	db         *gorm.DB
	userID     uuid.UUID
	ctx        context.Context
	eventSvc   EventService
	contextSvc ContextService
	nudgeSvc   NudgeService
	goalRepo   repos.GoalRepo
	nudgeRepo  repos.NudgeRepo
	moodRepo   repos.MoodCheckinRepo
}

func newServiceStack(t *testing.T) *serviceStack {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger()
	userID := seedUser(t, gdb)

	eventRepo := repos.NewUserEventRepo(gdb, log)
	nudgeRepo := repos.NewNudgeRepo(gdb, log)
	goalRepo := repos.NewGoalRepo(gdb, log)
	journalRepo := repos.NewJournalEntryRepo(gdb, log)
	moodRepo := repos.NewMoodCheckinRepo(gdb, log)

	thresholds := DefaultRuleThresholds()
	contextSvc := NewContextService(gdb, log, eventRepo, goalRepo, journalRepo, moodRepo, thresholds)
	nudgeSvc := NewNudgeService(gdb, log, nudgeRepo, eventRepo, contextSvc, DefaultRules(thresholds), nil)

	return &serviceStack{
		db:         gdb,
		userID:     userID,
		ctx:        authedCtx(userID),
		eventSvc:   NewEventService(gdb, log, eventRepo),
		contextSvc: contextSvc,
		nudgeSvc:   nudgeSvc,
		goalRepo:   goalRepo,
		nudgeRepo:  nudgeRepo,
		moodRepo:   moodRepo,
	}
}

func (s *serviceStack) logEvent(t *testing.T, input EventInput) *types.UserEvent {
	t.Helper()
	ev, err := s.eventSvc.Log(s.ctx, nil, input)
	if err != nil {
		t.Fatalf("log event %q: %v", input.Type, err)
	}
	return ev
}

func (s *serviceStack) seedActiveGoals(t *testing.T, n int) {
	t.Helper()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		goal := &types.Goal{
			ID:        uuid.New(),
			UserID:    s.userID,
			Title:     fmt.Sprintf("goal %d", i),
			Status:    types.GoalStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.goalRepo.Create(s.ctx, nil, []*types.Goal{goal}); err != nil {
			t.Fatalf("seed goal: %v", err)
		}
	}
}
