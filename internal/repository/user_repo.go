package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
)

// UserRepository provides data access methods for the User model. All
// reads and writes against the users table go through here so the JSON
// columns stay validated at a single boundary.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID fetches a user row. Returns gorm.ErrRecordNotFound when the
// id has no corresponding record.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row. The id comes from the messaging
// platform, so a duplicate insert fails on the primary key.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	if user.BlockedUsers == nil {
		user.BlockedUsers = db.IDSet{}
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateSettings persists the mutable profile fields.
func (r *UserRepository) UpdateSettings(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"display_name":        user.DisplayName,
			"gender":              user.Gender,
			"gender_preference":   user.GenderPreference,
			"language_preference": user.LanguagePreference,
			"age_range":           user.AgeRange,
		}).Error
}

// SetBanned flips the ban flag.
func (r *UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("is_banned", banned).Error
}

// AddBlockedUser adds blockedID to the user's block set. Reading and
// rewriting the set happens inside one transaction so concurrent block
// actions cannot drop each other's entries.
func (r *UserRepository) AddBlockedUser(ctx context.Context, userID, blockedID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if !user.BlockedUsers.Add(blockedID) {
			return nil // already blocked
		}
		return tx.Model(&db.User{}).
			Where("id = ?", userID).
			Update("blocked_users", user.BlockedUsers).Error
	})
}

// IncrementReferrals bumps the referral counter and returns the new
// count.
func (r *UserRepository) IncrementReferrals(ctx context.Context, userID int64) (int, error) {
	err := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		UpdateColumn("referrals_count", gorm.Expr("referrals_count + 1")).Error
	if err != nil {
		return 0, err
	}
	var user db.User
	if err := r.db.WithContext(ctx).Select("referrals_count").First(&user, "id = ?", userID).Error; err != nil {
		return 0, err
	}
	return user.ReferralsCount, nil
}

// UpdateUnlockedFeatures overwrites the feature set.
func (r *UserRepository) UpdateUnlockedFeatures(ctx context.Context, userID int64, features db.FeatureSet) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("unlocked_features", features).Error
}

// SetAdminSession grants admin access until expiry.
func (r *UserRepository) SetAdminSession(ctx context.Context, userID int64, expiry time.Time) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_admin":             true,
			"admin_session_expiry": expiry,
		}).Error
}

// ClearAdminSession revokes admin access.
func (r *UserRepository) ClearAdminSession(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_admin":             false,
			"admin_session_expiry": nil,
		}).Error
}
