package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// PairRepository provides data access methods for the Pair model. The
// pairs table is the source of truth for pair existence; the cache
// index is only an accelerator on top of it.
type PairRepository struct {
	db *gorm.DB
}

// NewPairRepository creates a new repository bound to the given DB connection.
func NewPairRepository(database *gorm.DB) *PairRepository {
	return &PairRepository{db: database}
}

// Create inserts a new pair row. The primary-key constraint on pair_id
// is the last-resort guard against duplicate identifiers.
func (r *PairRepository) Create(ctx context.Context, pair *db.Pair) error {
	return r.db.WithContext(ctx).Create(pair).Error
}

// GetByID fetches a pair row, active or not.
func (r *PairRepository) GetByID(ctx context.Context, pairID string) (*db.Pair, error) {
	var pair db.Pair
	if err := r.db.WithContext(ctx).First(&pair, "pair_id = ?", pairID).Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

// GetActiveForUser returns the most recent active pair the user
// participates in, or gorm.ErrRecordNotFound. This is the durable
// fallback behind the user_pair cache index.
func (r *PairRepository) GetActiveForUser(ctx context.Context, userID int64) (*db.Pair, error) {
	var pair db.Pair
	err := r.db.WithContext(ctx).
		Where("(user_a = ? OR user_b = ?) AND is_active = ?", userID, userID, true).
		Order("started_at DESC").
		First(&pair).Error
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Deactivate flips is_active to false and returns the row so the caller
// can clear both participants' cache entries. The update is
// unconditional, so repeating it on an already-inactive pair is a
// harmless no-op.
func (r *PairRepository) Deactivate(ctx context.Context, pairID string) (*db.Pair, error) {
	err := r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("pair_id = ?", pairID).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, pairID)
}

// TouchLastMessage refreshes the pair's last-message timestamp.
func (r *PairRepository) TouchLastMessage(ctx context.Context, pairID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("pair_id = ?", pairID).
		Update("last_message_at", at).Error
}

// CountActive counts all currently active pairs.
func (r *PairRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// CountForUser counts every pair (active or historical) the user has
// participated in.
func (r *PairRepository) CountForUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// CountActiveForUser counts the user's active pairs. Stays at zero or
// one while the single-active-pair invariant holds.
func (r *PairRepository) CountActiveForUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("(user_a = ? OR user_b = ?) AND is_active = ?", userID, userID, true).
		Count(&count).Error
	return count, err
}

// ListActiveIdleSince returns the ids of active pairs whose last
// message predates the cutoff. Used by the inactivity janitor.
func (r *PairRepository) ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&db.Pair{}).
		Where("is_active = ? AND last_message_at < ?", true, cutoff).
		Pluck("pair_id", &ids).Error
	return ids, err
}
