package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

type JournalEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.JournalEntry) ([]*types.JournalEntry, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.JournalEntry, error)
	LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.JournalEntry, error)
	CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type journalEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJournalEntryRepo(db *gorm.DB, baseLog *logger.Logger) JournalEntryRepo {
	repoLog := baseLog.With("repo", "JournalEntryRepo")
	return &journalEntryRepo{db: db, log: repoLog}
}

func (r *journalEntryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.JournalEntry) ([]*types.JournalEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.JournalEntry{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalEntryRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.JournalEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.JournalEntry
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = 100
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *journalEntryRepo) LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.JournalEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var results []*types.JournalEntry
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *journalEntryRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.JournalEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
