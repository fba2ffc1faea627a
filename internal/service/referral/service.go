package referral

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/repository"
)

// Unlock thresholds: partner preference opens first, the remaining
// perks at five referrals.
const (
	PartnerPreferenceThreshold = 3
	PremiumThreshold           = 5

	payloadPrefix = "ref_"
)

// Service processes referral sign-ups and the feature unlocks they
// earn. The engine consults the unlocked feature set when narrowing
// the gender filter.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		users:     repository.NewUserRepository(appCtx.DB),
		referrals: repository.NewReferralRepository(appCtx.DB),
	}
}

// Payload builds the start payload a referrer shares.
func Payload(userID int64) string {
	return payloadPrefix + strconv.FormatInt(userID, 10)
}

// ParsePayload extracts a referrer id from a start payload. Returns
// false for anything that is not a referral payload.
func ParsePayload(payload string) (int64, bool) {
	raw, found := strings.CutPrefix(payload, payloadPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Process records that referree signed up through referrer's link.
// Self-referrals and repeats are ignored, not errors. Returns true when
// a new referral was counted.
func (s *Service) Process(ctx context.Context, referrerID, referreeID int64) (bool, error) {
	if referrerID == referreeID {
		s.appCtx.Logger.Warn("self-referral attempted", "user", referrerID)
		return false, nil
	}

	exists, err := s.referrals.Exists(ctx, referrerID, referreeID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := s.referrals.Create(ctx, referrerID, referreeID); err != nil {
		return false, fmt.Errorf("record referral: %w", err)
	}
	count, err := s.users.IncrementReferrals(ctx, referrerID)
	if err != nil {
		return false, err
	}

	if err := s.applyUnlocks(ctx, referrerID, count); err != nil {
		return false, err
	}

	s.appCtx.Logger.Info("processed referral", "referrer", referrerID, "referree", referreeID, "count", count)
	return true, nil
}

// applyUnlocks flips newly earned feature flags based on the referral
// count.
func (s *Service) applyUnlocks(ctx context.Context, userID int64, count int) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	features := user.UnlockedFeatures
	changed := false

	if count >= PartnerPreferenceThreshold && !features.PartnerPreference {
		features.PartnerPreference = true
		changed = true
		s.appCtx.Logger.Info("unlocked partner preference", "user", userID)
	}
	if count >= PremiumThreshold && (!features.SeeGender || !features.SearchByAge) {
		features.SeeGender = true
		features.SearchByAge = true
		changed = true
		s.appCtx.Logger.Info("unlocked premium features", "user", userID)
	}

	if !changed {
		return nil
	}
	return s.users.UpdateUnlockedFeatures(ctx, userID, features)
}
