package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// MessageRepository appends to and prunes the durable message log. The
// engine only ever writes and reads excerpts; it never serves message
// history to users.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append stores one forwarded message.
func (r *MessageRepository) Append(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// RecentForPair returns up to limit most recent messages of a pair,
// newest first. Feeds the report excerpt.
func (r *MessageRepository) RecentForPair(ctx context.Context, pairID string, limit int) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("pair_id = ?", pairID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

// CountFrom counts messages sent by a user across all pairs.
func (r *MessageRepository) CountFrom(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Message{}).
		Where("from_id = ?", userID).
		Count(&count).Error
	return count, err
}

// DeleteOlderThan purges messages created before the cutoff and returns
// how many rows were removed.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&db.Message{})
	return res.RowsAffected, res.Error
}
