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

type JournalEntryInput struct {
	Content string   `json:"content"`
	Themes  []string `json:"themes,omitempty"`
}

type JournalService interface {
	Create(ctx context.Context, input JournalEntryInput) (*types.JournalEntry, error)
	ListRecent(ctx context.Context, days int) ([]*types.JournalEntry, error)
}

type journalService struct {
	db          *gorm.DB
	log         *logger.Logger
	journalRepo repos.JournalEntryRepo
	eventSvc    EventService
}

func NewJournalService(db *gorm.DB, baseLog *logger.Logger, journalRepo repos.JournalEntryRepo, eventSvc EventService) JournalService {
	return &journalService{
		db:          db,
		log:         baseLog.With("service", "JournalService"),
		journalRepo: journalRepo,
		eventSvc:    eventSvc,
	}
}

func (s *journalService) Create(ctx context.Context, input JournalEntryInput) (*types.JournalEntry, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apierr.Validation("journal content is required")
	}

	now := time.Now().UTC()
	entry := &types.JournalEntry{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	eventData := map[string]any{}
	if len(input.Themes) > 0 {
		b, err := json.Marshal(input.Themes)
		if err != nil {
			return nil, apierr.Validation("themes are not serializable")
		}
		entry.Themes = datatypes.JSON(b)
		eventData["theme"] = input.Themes[0]
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, cErr := s.journalRepo.Create(ctx, tx, []*types.JournalEntry{entry}); cErr != nil {
			return cErr
		}
		if _, eErr := s.eventSvc.Log(ctx, tx, EventInput{
			Type:          "journal_entry_created",
			SourceFeature: types.FeatureJournal,
			SourceID:      entry.ID.String(),
			Data:          eventData,
		}); eErr != nil {
			return eErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *journalService) ListRecent(ctx context.Context, days int) ([]*types.JournalEntry, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.journalRepo.GetRecentByUserID(ctx, nil, rd.UserID, since, 0)
}
