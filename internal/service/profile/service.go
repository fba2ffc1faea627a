package profile

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/repository"
	"github.com/chatlink/anonchat/internal/service/referral"
	"github.com/chatlink/anonchat/internal/utils/validate"
)

// Service owns onboarding registration, settings edits and per-user
// stats. Settings writes are validated here so the store only ever
// sees well-formed rows.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	pairRepo  *repository.PairRepository
	messages  *repository.MessageRepository
	referrals *referral.Service
}

func NewService(appCtx *app.AppContext, referrals *referral.Service) *Service {
	return &Service{
		appCtx:    appCtx,
		users:     repository.NewUserRepository(appCtx.DB),
		pairRepo:  repository.NewPairRepository(appCtx.DB),
		messages:  repository.NewMessageRepository(appCtx.DB),
		referrals: referrals,
	}
}

// RegisterInput carries an onboarding completion.
type RegisterInput struct {
	UserID             int64
	Username           string
	DisplayName        string
	Gender             db.Gender
	LanguagePreference db.Language
	AgeRange           string
	// StartPayload may carry a referral marker (ref_<id>).
	StartPayload string
}

// Register creates the user record if it does not exist yet and
// processes any referral payload. Re-registering an existing user
// returns the stored row untouched.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	if in.UserID == 0 {
		return nil, svcErr.InvalidArgument("user_id is required")
	}
	if err := validate.DisplayName(in.DisplayName); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	if err := validate.AgeRange(in.AgeRange); err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	if !in.Gender.Valid() {
		in.Gender = db.GenderUnknown
	}
	if !in.LanguagePreference.Valid() {
		in.LanguagePreference = db.LanguageAny
	}

	if existing, err := s.users.GetByID(ctx, in.UserID); err == nil {
		return existing, nil
	} else if !isNotFound(err) {
		return nil, err
	}

	user := &db.User{
		ID:                 in.UserID,
		Username:           in.Username,
		DisplayName:        validate.SanitizeText(in.DisplayName),
		Gender:             in.Gender,
		LanguagePreference: in.LanguagePreference,
		AgeRange:           in.AgeRange,
		UnlockedFeatures:   db.FeatureSet{},
		BlockedUsers:       db.IDSet{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if referrerID, ok := referral.ParsePayload(in.StartPayload); ok {
		if _, err := s.referrals.Process(ctx, referrerID, in.UserID); err != nil {
			// A broken referral must not fail onboarding.
			s.appCtx.Logger.Error("failed to process referral", "referrer", referrerID, "referree", in.UserID, "err", err)
		}
	}

	return user, nil
}

// SettingsInput carries a settings edit. Zero values leave the stored
// field untouched.
type SettingsInput struct {
	UserID             int64
	DisplayName        *string
	Gender             *db.Gender
	GenderPreference   *db.Gender
	LanguagePreference *db.Language
	AgeRange           *string
}

// UpdateSettings validates and persists a settings edit. Setting a
// gender preference requires the partner-preference unlock.
func (s *Service) UpdateSettings(ctx context.Context, in SettingsInput) (*db.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != nil {
		if err := validate.DisplayName(*in.DisplayName); err != nil {
			return nil, svcErr.InvalidArgument(err.Error())
		}
		user.DisplayName = validate.SanitizeText(*in.DisplayName)
	}
	if in.Gender != nil {
		if !in.Gender.Valid() {
			return nil, svcErr.InvalidArgument("invalid gender")
		}
		user.Gender = *in.Gender
	}
	if in.GenderPreference != nil {
		if !user.UnlockedFeatures.PartnerPreference {
			return nil, svcErr.ErrFeatureLocked
		}
		if !in.GenderPreference.Valid() {
			return nil, svcErr.InvalidArgument("invalid gender preference")
		}
		user.GenderPreference = *in.GenderPreference
	}
	if in.LanguagePreference != nil {
		if !in.LanguagePreference.Valid() {
			return nil, svcErr.InvalidArgument("invalid language preference")
		}
		user.LanguagePreference = *in.LanguagePreference
	}
	if in.AgeRange != nil {
		if err := validate.AgeRange(*in.AgeRange); err != nil {
			return nil, svcErr.InvalidArgument(err.Error())
		}
		user.AgeRange = *in.AgeRange
	}

	if err := s.users.UpdateSettings(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserStats summarizes a user's activity.
type UserStats struct {
	UserID         int64         `json:"user_id"`
	DisplayName    string        `json:"display_name"`
	TotalChats     int64         `json:"total_chats"`
	ActiveChats    int64         `json:"active_chats"`
	MessagesSent   int64         `json:"messages_sent"`
	ReferralsCount int           `json:"referrals_count"`
	AccountAgeDays int           `json:"account_age_days"`
	Unlocked       db.FeatureSet `json:"unlocked_features"`
	IsBanned       bool          `json:"is_banned"`
}

// Stats assembles the per-user activity summary.
func (s *Service) Stats(ctx context.Context, userID int64) (*UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.pairRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.pairRepo.CountActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.messages.CountFrom(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		UserID:         user.ID,
		DisplayName:    user.DisplayName,
		TotalChats:     total,
		ActiveChats:    active,
		MessagesSent:   sent,
		ReferralsCount: user.ReferralsCount,
		AccountAgeDays: int(time.Since(user.CreatedAt).Hours() / 24),
		Unlocked:       user.UnlockedFeatures,
		IsBanned:       user.IsBanned,
	}, nil
}

// ReferralPayload returns the start payload the user can share.
func (s *Service) ReferralPayload(userID int64) string {
	return referral.Payload(userID)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
