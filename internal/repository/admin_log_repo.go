package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// AdminLogRepository appends audit rows for admin actions.
type AdminLogRepository struct {
	db *gorm.DB
}

func NewAdminLogRepository(database *gorm.DB) *AdminLogRepository {
	return &AdminLogRepository{db: database}
}

func (r *AdminLogRepository) Append(ctx context.Context, adminID int64, action string, meta db.Metadata) error {
	return r.db.WithContext(ctx).Create(&db.AdminLog{
		AdminID:  adminID,
		Action:   action,
		Metadata: meta,
	}).Error
}

// RecentForAdmin returns the latest audit rows for one admin, newest
// first.
func (r *AdminLogRepository) RecentForAdmin(ctx context.Context, adminID int64, limit int) ([]db.AdminLog, error) {
	var logs []db.AdminLog
	err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
