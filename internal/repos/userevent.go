package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

// UserEventRepo is append-only: no update or delete methods exist on
// purpose. Retention, if ever needed, belongs in a migration, not here.
type UserEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.UserEvent) ([]*types.UserEvent, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.UserEvent, error)
	GetByUserAndTypesSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes []string, since time.Time) ([]*types.UserEvent, error)
	LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserEvent, error)
}

type userEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserEventRepo(db *gorm.DB, baseLog *logger.Logger) UserEventRepo {
	repoLog := baseLog.With("repo", "UserEventRepo")
	return &userEventRepo{db: db, log: repoLog}
}

func (r *userEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.UserEvent) ([]*types.UserEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.UserEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *userEventRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time, limit int) ([]*types.UserEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserEvent
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = 500
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

func (r *userEventRepo) GetByUserAndTypesSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes []string, since time.Time) ([]*types.UserEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserEvent
	if userID == uuid.Nil || len(eventTypes) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND type IN ? AND created_at >= ?", userID, eventTypes, since).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userEventRepo) LatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var results []*types.UserEvent
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
