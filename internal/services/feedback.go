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

var feedbackTypes = map[string]bool{
	types.FeedbackThumbsUp:         true,
	types.FeedbackThumbsDown:       true,
	types.FeedbackRating:           true,
	types.FeedbackImplicitPositive: true,
}

var feedbackTargetTypes = map[string]bool{
	types.FeedbackTargetAIResponse: true,
	types.FeedbackTargetNudge:      true,
	types.FeedbackTargetSuggestion: true,
	types.FeedbackTargetFeatureUse: true,
}

type FeedbackInput struct {
	FeedbackType string `json:"feedback_type"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Rating       *int   `json:"rating,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

type FeedbackService interface {
	Record(ctx context.Context, tx *gorm.DB, input FeedbackInput) (*types.Feedback, error)
}

type feedbackService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.FeedbackRepo
}

func NewFeedbackService(db *gorm.DB, baseLog *logger.Logger, repo repos.FeedbackRepo) FeedbackService {
	return &feedbackService{
		db:   db,
		log:  baseLog.With("service", "FeedbackService"),
		repo: repo,
	}
}

func (s *feedbackService) Record(ctx context.Context, tx *gorm.DB, input FeedbackInput) (*types.Feedback, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}

	fType := strings.TrimSpace(strings.ToLower(input.FeedbackType))
	if !feedbackTypes[fType] {
		return nil, apierr.Validation("invalid feedback_type %q", input.FeedbackType)
	}
	tType := strings.TrimSpace(strings.ToLower(input.TargetType))
	if !feedbackTargetTypes[tType] {
		return nil, apierr.Validation("invalid target_type %q", input.TargetType)
	}
	targetID, err := uuid.Parse(strings.TrimSpace(input.TargetID))
	if err != nil {
		return nil, apierr.Validation("invalid target_id %q", input.TargetID)
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, apierr.Validation("rating must be between 1 and 5")
	}

	feedback := &types.Feedback{
		ID:           uuid.New(),
		UserID:       rd.UserID,
		FeedbackType: fType,
		TargetType:   tType,
		TargetID:     targetID,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		CreatedAt:    time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, tx, []*types.Feedback{feedback})
	if err != nil {
		s.log.Warn("feedback record failed", "error", err)
		return nil, err
	}
	return created[0], nil
}
