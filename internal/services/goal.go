package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/requestdata"
	"github.com/lumawell/luma-backend/internal/types"
)

type GoalInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ActionPlan  []string   `json:"action_plan,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
}

type GoalService interface {
	Create(ctx context.Context, input GoalInput) (*types.Goal, error)
	List(ctx context.Context, status string) ([]*types.Goal, error)
	Complete(ctx context.Context, goalID uuid.UUID) (*types.Goal, error)
}

type goalService struct {
	db       *gorm.DB
	log      *logger.Logger
	goalRepo repos.GoalRepo
	eventSvc EventService
}

func NewGoalService(db *gorm.DB, baseLog *logger.Logger, goalRepo repos.GoalRepo, eventSvc EventService) GoalService {
	return &goalService{
		db:       db,
		log:      baseLog.With("service", "GoalService"),
		goalRepo: goalRepo,
		eventSvc: eventSvc,
	}
}

func (s *goalService) Create(ctx context.Context, input GoalInput) (*types.Goal, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apierr.Validation("goal title is required")
	}

	now := time.Now().UTC()
	goal := &types.Goal{
		ID:          uuid.New(),
		UserID:      rd.UserID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      types.GoalStatusActive,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(input.ActionPlan) > 0 {
		b, err := json.Marshal(input.ActionPlan)
		if err != nil {
			return nil, apierr.Validation("action_plan is not serializable")
		}
		goal.ActionPlan = datatypes.JSON(b)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := s.goalRepo.Create(ctx, tx, []*types.Goal{goal}); cErr != nil {
			return cErr
		}
		if _, eErr := s.eventSvc.Log(ctx, tx, EventInput{
			Type:          "goal_created",
			SourceFeature: types.FeatureGoals,
			SourceID:      goal.ID.String(),
		}); eErr != nil {
			return eErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalService) List(ctx context.Context, status string) ([]*types.Goal, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if status != "" && status != types.GoalStatusActive && status != types.GoalStatusCompleted && status != types.GoalStatusAbandoned {
		return nil, apierr.Validation("invalid goal status %q", status)
	}
	return s.goalRepo.ListByUserID(ctx, nil, rd.UserID, status)
}

func (s *goalService) Complete(ctx context.Context, goalID uuid.UUID) (*types.Goal, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, mErr := s.goalRepo.MarkCompleted(ctx, tx, rd.UserID, goalID, now)
		if mErr != nil {
			return mErr
		}
		if rows == 0 {
			existing, gErr := s.goalRepo.GetByID(ctx, tx, goalID)
			if gErr != nil {
				return gErr
			}
			if existing == nil || existing.UserID != rd.UserID {
				return apierr.NotFound("goal %s not found", goalID)
			}
			return apierr.InvalidState("goal %s is already %s", goalID, existing.Status)
		}
		if _, eErr := s.eventSvc.Log(ctx, tx, EventInput{
			Type:          "goal_completed",
			SourceFeature: types.FeatureGoals,
			SourceID:      goalID.String(),
		}); eErr != nil {
			return eErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.goalRepo.GetByID(ctx, nil, goalID)
}
