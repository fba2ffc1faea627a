package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// ReferralRepository stores referral edges between users.
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(database *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: database}
}

// Exists reports whether referrer already referred referree.
func (r *ReferralRepository) Exists(ctx context.Context, referrerID, referreeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Referral{}).
		Where("referrer_id = ? AND referree_id = ?", referrerID, referreeID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a referral edge. The composite unique index rejects
// duplicates that race past Exists.
func (r *ReferralRepository) Create(ctx context.Context, referrerID, referreeID int64) error {
	return r.db.WithContext(ctx).Create(&db.Referral{
		ReferrerID: referrerID,
		ReferreeID: referreeID,
	}).Error
}
