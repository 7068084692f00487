package services

import (
	"context"
	"encoding/json"
	"regexp"
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

var eventTypeRe = regexp.MustCompile(`^[a-z0-9_\.]{3,64}$`)

var sourceFeatures = map[string]bool{
	types.FeatureChat:      true,
	types.FeatureGoals:     true,
	types.FeatureJournal:   true,
	types.FeatureTools:     true,
	types.FeatureDashboard: true,
}

type EventInput struct {
	Type          string         `json:"event_type"`
	SourceFeature string         `json:"source_feature"`
	SourceID      string         `json:"source_id,omitempty"`
	Data          map[string]any `json:"event_data,omitempty"`
}

// EventService appends to the behavioral log. The client treats logging as
// fire-and-forget; server-side failures still return errors so they get
// logged, they just never reach the user.
type EventService interface {
	Log(ctx context.Context, tx *gorm.DB, input EventInput) (*types.UserEvent, error)
}

type eventService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.UserEventRepo
}

func NewEventService(db *gorm.DB, baseLog *logger.Logger, repo repos.UserEventRepo) EventService {
	return &eventService{
		db:   db,
		log:  baseLog.With("service", "EventService"),
		repo: repo,
	}
}

func (s *eventService) Log(ctx context.Context, tx *gorm.DB, input EventInput) (*types.UserEvent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}

	typ := strings.TrimSpace(strings.ToLower(input.Type))
	if !eventTypeRe.MatchString(typ) {
		return nil, apierr.Validation("invalid event_type %q", input.Type)
	}
	feature := strings.TrimSpace(strings.ToLower(input.SourceFeature))
	if !sourceFeatures[feature] {
		return nil, apierr.Validation("invalid source_feature %q", input.SourceFeature)
	}

	var sourceID *uuid.UUID
	if v := strings.TrimSpace(input.SourceID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apierr.Validation("invalid source_id %q", input.SourceID)
		}
		sourceID = &id
	}

	var payload datatypes.JSON
	if len(input.Data) > 0 {
		b, err := json.Marshal(input.Data)
		if err != nil {
			return nil, apierr.Validation("event_data is not serializable")
		}
		payload = datatypes.JSON(b)
	}

	now := time.Now().UTC()
	event := &types.UserEvent{
		ID:            uuid.New(),
		UserID:        rd.UserID,
		Type:          typ,
		SourceFeature: feature,
		SourceID:      sourceID,
		Data:          payload,
		CreatedAt:     now,
	}
	created, err := s.repo.Create(ctx, tx, []*types.UserEvent{event})
	if err != nil {
		s.log.Warn("event log failed", "error", err, "event_type", typ)
		return nil, err
	}
	return created[0], nil
}
