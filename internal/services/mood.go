package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/requestdata"
	"github.com/lumawell/luma-backend/internal/types"
)

type MoodCheckinInput struct {
	Value int    `json:"mood_value"`
	Note  string `json:"note,omitempty"`
}

type MoodService interface {
	Checkin(ctx context.Context, input MoodCheckinInput) (*types.MoodCheckin, error)
	ListRecent(ctx context.Context, days int) ([]*types.MoodCheckin, error)
}

type moodService struct {
	db       *gorm.DB
	log      *logger.Logger
	moodRepo repos.MoodCheckinRepo
	eventSvc EventService
}

func NewMoodService(db *gorm.DB, baseLog *logger.Logger, moodRepo repos.MoodCheckinRepo, eventSvc EventService) MoodService {
	return &moodService{
		db:       db,
		log:      baseLog.With("service", "MoodService"),
		moodRepo: moodRepo,
		eventSvc: eventSvc,
	}
}

func (s *moodService) Checkin(ctx context.Context, input MoodCheckinInput) (*types.MoodCheckin, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if input.Value < 1 || input.Value > 5 {
		return nil, apierr.Validation("mood_value must be between 1 and 5")
	}

	checkin := &types.MoodCheckin{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		Value:     input.Value,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := s.moodRepo.Create(ctx, tx, []*types.MoodCheckin{checkin}); cErr != nil {
			return cErr
		}
		if _, eErr := s.eventSvc.Log(ctx, tx, EventInput{
			Type:          "mood_checkin_completed",
			SourceFeature: types.FeatureDashboard,
			SourceID:      checkin.ID.String(),
			Data:          map[string]any{"mood_value": input.Value},
		}); eErr != nil {
			return eErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkin, nil
}

func (s *moodService) ListRecent(ctx context.Context, days int) ([]*types.MoodCheckin, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if days <= 0 {
		days = 14
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.moodRepo.GetRecentByUserID(ctx, nil, rd.UserID, since, 0)
}
