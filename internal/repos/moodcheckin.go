package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

type MoodCheckinRepo interface {
	Create(ctx context.Context, tx *gorm.DB, checkins []*types.MoodCheckin) ([]*types.MoodCheckin, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.MoodCheckin, error)
}

type moodCheckinRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMoodCheckinRepo(db *gorm.DB, baseLog *logger.Logger) MoodCheckinRepo {
	repoLog := baseLog.With("repo", "MoodCheckinRepo")
	return &moodCheckinRepo{db: db, log: repoLog}
}

func (r *moodCheckinRepo) Create(ctx context.Context, tx *gorm.DB, checkins []*types.MoodCheckin) ([]*types.MoodCheckin, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(checkins) == 0 {
		return []*types.MoodCheckin{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&checkins).Error; err != nil {
		return nil, err
	}
	return checkins, nil
}

func (r *moodCheckinRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.MoodCheckin, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MoodCheckin
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
