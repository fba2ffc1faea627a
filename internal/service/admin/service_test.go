package admin_test

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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/service/admin"
	"github.com/chatlink/anonchat/internal/service/matchmaking"
	"github.com/chatlink/anonchat/internal/service/moderation"
)

const testSecret = "open-sesame"

type fixture struct {
	svc *admin.Service
	gdb *gorm.DB
}

func setup(t *testing.T) *fixture {
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

	users := []db.User{
		{ID: 1, Username: "operator", UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
		{ID: 2, Username: "alice", UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
		{ID: 3, Username: "bob", UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
	}
	require.NoError(t, gdb.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testSecret), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Admin.SecretHash = string(hash)
	cfg.Admin.SessionDuration = 2 * time.Hour

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(gdb, cache.NewRedisCache(cfg), log)

	engine := matchmaking.NewService(appCtx, cfg, moderation.NewFilter())
	return &fixture{
		svc: admin.NewService(appCtx, cfg, engine),
		gdb: gdb,
	}
}

func login(t *testing.T, f *fixture, userID int64) {
	t.Helper()
	require.NoError(t, f.svc.Authenticate(context.Background(), userID, testSecret))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.svc.Authenticate(ctx, 1, testSecret))

	ok, err := f.svc.CheckAccess(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Login lands in the audit log.
	var logs []db.AdminLog
	require.NoError(t, f.gdb.Where("admin_id = ?", 1).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "login", logs[0].Action)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.Authenticate(ctx, 1, "wrong")
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)

	ok, err := f.svc.CheckAccess(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestSessionExpiry verifies an expired session is revoked on the next
// access check.
func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.gdb.Model(&db.User{}).
		Where("id = ?", 1).
		Update("admin_session_expiry", expired).Error)

	ok, err := f.svc.CheckAccess(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// The revocation is durable: the admin flag is gone.
	var user db.User
	require.NoError(t, f.gdb.First(&user, 1).Error)
	assert.False(t, user.IsAdmin)
}

func TestBanUnban(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	require.NoError(t, f.svc.Ban(ctx, 1, 2))

	var user db.User
	require.NoError(t, f.gdb.First(&user, 2).Error)
	assert.True(t, user.IsBanned)

	require.NoError(t, f.svc.Unban(ctx, 1, 2))
	require.NoError(t, f.gdb.First(&user, 2).Error)
	assert.False(t, user.IsBanned)

	var logs []db.AdminLog
	require.NoError(t, f.gdb.Where("admin_id = ?", 1).Order("id").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, "ban", logs[1].Action)
	assert.Equal(t, "unban", logs[2].Action)
}

func TestBanWithoutSession(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.svc.Ban(ctx, 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrUnauthorized)
}

func TestForcePair(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	pairID, err := f.svc.ForcePair(ctx, 1, 2, 3, db.LanguageEnglish)
	require.NoError(t, err)
	require.NotEmpty(t, pairID)

	info, err := f.svc.PairInfo(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, pairID, info.PairID)
	assert.True(t, info.IsActive)
	assert.Equal(t, int64(3), info.Partner(2))
}

func TestForcePairSelf(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	_, err := f.svc.ForcePair(ctx, 1, 2, 2, db.LanguageAny)
	require.Error(t, err)
	assert.Equal(t, 400, svcErr.Map(err).Status)
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	pairID, err := f.svc.ForcePair(ctx, 1, 2, 3, db.LanguageAny)
	require.NoError(t, err)

	require.NoError(t, f.svc.Disconnect(ctx, 1, 2))

	var pair db.Pair
	require.NoError(t, f.gdb.First(&pair, "pair_id = ?", pairID).Error)
	assert.False(t, pair.IsActive)

	// No active chat left to disconnect.
	err = f.svc.Disconnect(ctx, 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotInChat)
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	require.NoError(t, f.svc.Ban(ctx, 1, 2))
	require.NoError(t, f.svc.Unban(ctx, 1, 2))

	logs, err := f.svc.AuditTrail(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// Newest first.
	assert.Equal(t, "unban", logs[0].Action)
	assert.Equal(t, "ban", logs[1].Action)
	assert.Equal(t, "login", logs[2].Action)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	login(t, f, 1)

	_, err := f.svc.ForcePair(ctx, 1, 2, 3, db.LanguageAny)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActivePairs)
	assert.Equal(t, int64(2), stats.ChattingUsers)
	assert.Zero(t, stats.WaitingUsers)
}
