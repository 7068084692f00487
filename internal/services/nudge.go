package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/requestdata"
	"github.com/lumawell/luma-backend/internal/types"
)

var validSurfaces = map[string]bool{
	types.SurfaceHome:    true,
	types.SurfaceGoals:   true,
	types.SurfaceJournal: true,
	types.SurfaceChat:    true,
	types.SurfaceTools:   true,
}

// EvalGate rate-limits synchronous rule evaluation per user. A nil gate
// means evaluate on every read.
type EvalGate interface {
	Allow(ctx context.Context, userID uuid.UUID) bool
}

type NudgeService interface {
	// ListPending evaluates the rule registry for the calling user, then
	// returns pending unexpired nudges for the surface, highest priority
	// first, newest first within a priority.
	ListPending(ctx context.Context, surface string) ([]*types.Nudge, error)
	Accept(ctx context.Context, nudgeID uuid.UUID) (*types.Nudge, error)
	Dismiss(ctx context.Context, nudgeID uuid.UUID) (*types.Nudge, error)
	// Evaluate runs the registry once for a user and inserts any
	// non-duplicate drafts. Returns the number of nudges created.
	Evaluate(ctx context.Context, userID uuid.UUID) (int64, error)
}

type nudgeService struct {
	db         *gorm.DB
	log        *logger.Logger
	nudgeRepo  repos.NudgeRepo
	eventRepo  repos.UserEventRepo
	contextSvc ContextService
	rules      []Rule
	gate       EvalGate
}

func NewNudgeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	nudgeRepo repos.NudgeRepo,
	eventRepo repos.UserEventRepo,
	contextSvc ContextService,
	rules []Rule,
	gate EvalGate,
) NudgeService {
	return &nudgeService{
		db:         db,
		log:        baseLog.With("service", "NudgeService"),
		nudgeRepo:  nudgeRepo,
		eventRepo:  eventRepo,
		contextSvc: contextSvc,
		rules:      rules,
		gate:       gate,
	}
}

func (s *nudgeService) ListPending(ctx context.Context, surface string) ([]*types.Nudge, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if !validSurfaces[surface] {
		return nil, apierr.Validation("invalid surface %q", surface)
	}

	// Sweep before evaluating: an overdue pending row would otherwise hold
	// the dedup index and swallow the fresh draft for a still-true rule.
	now := time.Now().UTC()
	if swept, err := s.nudgeRepo.MarkExpired(ctx, nil, rd.UserID, now); err != nil {
		s.log.Warn("expiry sweep failed", "error", err)
	} else if swept > 0 {
		s.log.Debug("swept expired nudges", "count", swept)
	}

	if s.gate == nil || s.gate.Allow(ctx, rd.UserID) {
		if _, err := s.Evaluate(ctx, rd.UserID); err != nil {
			// A failed evaluation pass degrades the read to whatever is
			// already stored; it must not take the surface down.
			s.log.Warn("rule evaluation failed on read", "error", err, "user_id", rd.UserID)
		}
	}

	nudges, err := s.nudgeRepo.ListPending(ctx, nil, rd.UserID, surface, now)
	if err != nil {
		return nil, err
	}
	return nudges, nil
}

func (s *nudgeService) Evaluate(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, apierr.Unauthorized("not authenticated")
	}
	now := time.Now().UTC()

	snapshot, err := s.contextSvc.Snapshot(ctx, userID)
	if err != nil {
		return 0, err
	}
	events, err := s.eventRepo.GetRecentByUserID(ctx, nil, userID, now.Add(-contextEventWindow), contextEventLimit)
	if err != nil {
		return 0, err
	}

	maxCooldown := time.Duration(0)
	for _, rule := range s.rules {
		if rule.Cooldown > maxCooldown {
			maxCooldown = rule.Cooldown
		}
	}
	dismissed, err := s.nudgeRepo.LastDismissedByRule(ctx, nil, userID, now.Add(-maxCooldown))
	if err != nil {
		return 0, err
	}

	drafts := EvaluateRegistry(s.log, s.rules, RuleInput{
		Context: snapshot,
		Events:  events,
		Now:     now,
	}, dismissed)
	if len(drafts) == 0 {
		return 0, nil
	}
	for _, n := range drafts {
		n.ID = uuid.New()
		n.UserID = userID
		n.CreatedAt = now
		n.UpdatedAt = now
	}

	created, err := s.nudgeRepo.CreateIgnoreDuplicates(ctx, nil, drafts)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.log.Debug("nudges created", "count", created, "user_id", userID)
	}
	return created, nil
}

func (s *nudgeService) Accept(ctx context.Context, nudgeID uuid.UUID) (*types.Nudge, error) {
	return s.transition(ctx, nudgeID, types.NudgeStatusAccepted)
}

func (s *nudgeService) Dismiss(ctx context.Context, nudgeID uuid.UUID) (*types.Nudge, error) {
	return s.transition(ctx, nudgeID, types.NudgeStatusDismissed)
}

// transition performs the pending → terminal CAS. When the swap loses (the
// nudge is absent, someone else's, or already terminal) the caller gets a
// client error, never a silent success.
func (s *nudgeService) transition(ctx context.Context, nudgeID uuid.UUID, toStatus string) (*types.Nudge, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if nudgeID == uuid.Nil {
		return nil, apierr.Validation("invalid nudge id")
	}

	now := time.Now().UTC()
	rows, err := s.nudgeRepo.MarkStatus(ctx, nil, rd.UserID, nudgeID, toStatus, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		existing, gErr := s.nudgeRepo.GetByID(ctx, nil, nudgeID)
		if gErr != nil {
			return nil, gErr
		}
		if existing == nil || existing.UserID != rd.UserID {
			return nil, apierr.NotFound("nudge %s not found", nudgeID)
		}
		return nil, apierr.InvalidState("nudge %s is already %s", nudgeID, existing.Status)
	}

	updated, err := s.nudgeRepo.GetByID(ctx, nil, nudgeID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
