package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

// FeedbackRepo is write-once: rows are never mutated after creation.
type FeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback []*types.Feedback) ([]*types.Feedback, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Feedback, error)
	GetByUserAndTarget(ctx context.Context, tx *gorm.DB, userID uuid.UUID, targetType string, targetID uuid.UUID) ([]*types.Feedback, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	repoLog := baseLog.With("repo", "FeedbackRepo")
	return &feedbackRepo{db: db, log: repoLog}
}

func (r *feedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback []*types.Feedback) ([]*types.Feedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(feedback) == 0 {
		return []*types.Feedback{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *feedbackRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.Feedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Feedback
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *feedbackRepo) GetByUserAndTarget(ctx context.Context, tx *gorm.DB, userID uuid.UUID, targetType string, targetID uuid.UUID) ([]*types.Feedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Feedback
	if userID == uuid.Nil || targetID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
