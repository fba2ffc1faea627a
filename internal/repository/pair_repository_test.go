package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/db"
	"github.com/chatlink/anonchat/internal/repository"
)

func seedPair(t *testing.T, repo *repository.PairRepository, pairID string, userA, userB int64, active bool, lastMessage time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &db.Pair{
		PairID:        pairID,
		UserA:         userA,
		UserB:         userB,
		StartedAt:     lastMessage,
		LastMessageAt: lastMessage,
		IsActive:      active,
		LanguageUsed:  db.LanguageAny,
	}))
}

func TestGetActiveForUser(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	repo := repository.NewPairRepository(gdb)

	now := time.Now().UTC()
	seedPair(t, repo, "old", 1, 2, false, now.Add(-time.Hour))
	seedPair(t, repo, "current", 2, 1, true, now)

	// Found whether the user is side A or side B.
	pair, err := repo.GetActiveForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "current", pair.PairID)

	pair, err = repo.GetActiveForUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "current", pair.PairID)

	_, err = repo.GetActiveForUser(ctx, 3)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	repo := repository.NewPairRepository(gdb)

	seedPair(t, repo, "p1", 1, 2, true, time.Now().UTC())

	pair, err := repo.Deactivate(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, pair.IsActive)
	assert.Equal(t, int64(1), pair.UserA)

	// Repeating the flip is safe.
	pair, err = repo.Deactivate(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, pair.IsActive)
}

func TestCountActive(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	repo := repository.NewPairRepository(gdb)

	now := time.Now().UTC()
	seedPair(t, repo, "p1", 1, 2, true, now)
	seedPair(t, repo, "p2", 3, 4, true, now)
	seedPair(t, repo, "p3", 5, 6, false, now)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListActiveIdleSince(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	repo := repository.NewPairRepository(gdb)

	now := time.Now().UTC()
	seedPair(t, repo, "stale", 1, 2, true, now.Add(-10*time.Minute))
	seedPair(t, repo, "fresh", 3, 4, true, now)
	seedPair(t, repo, "stale-but-ended", 5, 6, false, now.Add(-10*time.Minute))

	ids, err := repo.ListActiveIdleSince(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, ids)
}

func TestTouchLastMessage(t *testing.T) {
	ctx := context.Background()
	gdb := setupDB(t)
	repo := repository.NewPairRepository(gdb)

	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	seedPair(t, repo, "p1", 1, 2, true, start)

	touched := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.TouchLastMessage(ctx, "p1", touched))

	pair, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, pair.LastMessageAt.After(start))
}
