package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// ReportRepository stores user reports. Write-only from the engine's
// perspective; review happens elsewhere.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

func (r *ReportRepository) Create(ctx context.Context, report *db.Report) error {
	if report.Status == "" {
		report.Status = "pending"
	}
	return r.db.WithContext(ctx).Create(report).Error
}
