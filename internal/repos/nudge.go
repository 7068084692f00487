package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
)

type NudgeRepo interface {
	// CreateIgnoreDuplicates inserts drafts with ON CONFLICT DO NOTHING
	// against the partial unique index on (user_id, rule_name, surface)
	// WHERE status='pending'. Returns the number of rows actually
	// inserted; duplicates of an active nudge are silently skipped.
	CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, nudges []*types.Nudge) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Nudge, error)
	ListPending(ctx context.Context, tx *gorm.DB, userID uuid.UUID, surface string, now time.Time) ([]*types.Nudge, error)
	// MarkStatus is a compare-and-swap: pending → toStatus, returning the
	// number of rows transitioned (0 means the nudge was absent, not
	// owned, or already terminal).
	MarkStatus(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, toStatus string, now time.Time) (int64, error)
	// MarkExpired moves overdue pending nudges to expired, not dismissed:
	// only explicit user dismissals may feed the cooldown loop.
	MarkExpired(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error)
	LastDismissedByRule(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (map[string]time.Time, error)
}

type nudgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNudgeRepo(db *gorm.DB, baseLog *logger.Logger) NudgeRepo {
	repoLog := baseLog.With("repo", "NudgeRepo")
	return &nudgeRepo{db: db, log: repoLog}
}

func (r *nudgeRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, nudges []*types.Nudge) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(nudges) == 0 {
		return 0, nil
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&nudges)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *nudgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Nudge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var results []*types.Nudge
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

func (r *nudgeRepo) ListPending(ctx context.Context, tx *gorm.DB, userID uuid.UUID, surface string, now time.Time) ([]*types.Nudge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Nudge
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND surface = ? AND status = ? AND expires_at > ?",
			userID, surface, types.NudgeStatusPending, now).
		Order("priority_rank DESC, created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *nudgeRepo) MarkStatus(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID, toStatus string, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Nudge{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, types.NudgeStatusPending).
		Updates(map[string]interface{}{
			"status":     toStatus,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *nudgeRepo) MarkExpired(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Nudge{}).
		Where("user_id = ? AND status = ? AND expires_at <= ?", userID, types.NudgeStatusPending, now).
		Updates(map[string]interface{}{
			"status":     types.NudgeStatusExpired,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *nudgeRepo) LastDismissedByRule(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (map[string]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	out := map[string]time.Time{}
	if userID == uuid.Nil {
		return out, nil
	}

	var rows []*types.Nudge
	if err := transaction.WithContext(ctx).
		Select("rule_name", "updated_at").
		Where("user_id = ? AND status = ? AND updated_at >= ?", userID, types.NudgeStatusDismissed, since).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, n := range rows {
		if last, ok := out[n.RuleName]; !ok || n.UpdatedAt.After(last) {
			out[n.RuleName] = n.UpdatedAt
		}
	}
	return out, nil
}
