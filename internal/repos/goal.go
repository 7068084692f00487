package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

type GoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, goals []*types.Goal) ([]*types.Goal, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Goal, error)
	CountActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, now time.Time) (int64, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	repoLog := baseLog.With("repo", "GoalRepo")
	return &goalRepo{db: db, log: repoLog}
}

func (r *goalRepo) Create(ctx context.Context, tx *gorm.DB, goals []*types.Goal) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(goals) == 0 {
		return []*types.Goal{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var results []*types.Goal
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *goalRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Goal
	if userID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *goalRepo) CountActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Goal{}).
		Where("user_id = ? AND status = ?", userID, types.GoalStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *goalRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Goal{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.GoalStatusActive).
		Updates(map[string]interface{}{
			"status":       types.GoalStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
