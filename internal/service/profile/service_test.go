package profile_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/service/profile"
	"github.com/chatlink/anonchat/internal/service/referral"
)

func setup(t *testing.T) (*profile.Service, *gorm.DB) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), log)

	return profile.NewService(appCtx, referral.NewService(appCtx)), gdb
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	user, err := svc.Register(ctx, profile.RegisterInput{
		UserID:             100,
		Username:           "alice",
		DisplayName:        "  Alice   W  ",
		Gender:             db.GenderFemale,
		LanguagePreference: db.LanguageEnglish,
		AgeRange:           "18-25",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.ID)
	assert.Equal(t, "Alice W", user.DisplayName)
	assert.Equal(t, db.GenderFemale, user.Gender)
	assert.Equal(t, db.LanguageEnglish, user.LanguagePreference)
}

func TestRegisterDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	user, err := svc.Register(ctx, profile.RegisterInput{
		UserID:             100,
		Gender:             db.Gender(99),
		LanguagePreference: db.Language("klingon"),
	})
	require.NoError(t, err)
	assert.Equal(t, db.GenderUnknown, user.Gender)
	assert.Equal(t, db.LanguageAny, user.LanguagePreference)
}

// TestRegisterIdempotent verifies re-registering returns the stored row
// untouched.
func TestRegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 100, DisplayName: "First"})
	require.NoError(t, err)

	user, err := svc.Register(ctx, profile.RegisterInput{UserID: 100, DisplayName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "First", user.DisplayName)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 0})
	require.Error(t, err)
	assert.Equal(t, 400, svcErr.Map(err).Status)

	_, err = svc.Register(ctx, profile.RegisterInput{
		UserID:      100,
		DisplayName: "this display name is far too long to be accepted",
	})
	require.Error(t, err)
	assert.Equal(t, 400, svcErr.Map(err).Status)

	_, err = svc.Register(ctx, profile.RegisterInput{UserID: 100, AgeRange: "25-18"})
	require.Error(t, err)
	assert.Equal(t, 400, svcErr.Map(err).Status)
}

// TestRegisterWithReferral verifies the start payload credits the
// referrer.
func TestRegisterWithReferral(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 100})
	require.NoError(t, err)

	_, err = svc.Register(ctx, profile.RegisterInput{
		UserID:       200,
		StartPayload: svc.ReferralPayload(100),
	})
	require.NoError(t, err)

	var referrer db.User
	require.NoError(t, gdb.First(&referrer, 100).Error)
	assert.Equal(t, 1, referrer.ReferralsCount)
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 100})
	require.NoError(t, err)

	name := "New Name"
	lang := db.LanguageHindi
	user, err := svc.UpdateSettings(ctx, profile.SettingsInput{
		UserID:             100,
		DisplayName:        &name,
		LanguagePreference: &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.DisplayName)
	assert.Equal(t, db.LanguageHindi, user.LanguagePreference)
}

// TestUpdateSettingsFeatureLock verifies a gender preference needs the
// partner-preference unlock.
func TestUpdateSettingsFeatureLock(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 100})
	require.NoError(t, err)

	pref := db.GenderFemale
	_, err = svc.UpdateSettings(ctx, profile.SettingsInput{UserID: 100, GenderPreference: &pref})
	assert.ErrorIs(t, err, svcErr.ErrFeatureLocked)

	// Grant the unlock and retry.
	require.NoError(t, gdb.Model(&db.User{}).
		Where("id = ?", 100).
		Update("unlocked_features", db.FeatureSet{PartnerPreference: true}).Error)

	user, err := svc.UpdateSettings(ctx, profile.SettingsInput{UserID: 100, GenderPreference: &pref})
	require.NoError(t, err)
	assert.Equal(t, db.GenderFemale, user.GenderPreference)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setup(t)

	_, err := svc.Register(ctx, profile.RegisterInput{UserID: 100, DisplayName: "Alice"})
	require.NoError(t, err)

	now := time.Now().UTC()
	pairs := []db.Pair{
		{PairID: "p1", UserA: 100, UserB: 200, StartedAt: now, LastMessageAt: now, IsActive: false},
		{PairID: "p2", UserA: 200, UserB: 100, StartedAt: now, LastMessageAt: now, IsActive: true},
	}
	require.NoError(t, gdb.Create(&pairs).Error)
	require.NoError(t, gdb.Create(&db.Message{PairID: "p2", FromID: 100, Content: "hi"}).Error)

	stats, err := svc.Stats(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stats.DisplayName)
	assert.Equal(t, int64(2), stats.TotalChats)
	assert.Equal(t, int64(1), stats.ActiveChats)
	assert.Equal(t, int64(1), stats.MessagesSent)
}
