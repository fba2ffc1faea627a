package matchmaking_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/db"
	"github.com/chatlink/anonchat/internal/repository"
	"github.com/chatlink/anonchat/internal/service/matchmaking"
)

// seedMatcherPool inserts candidates 7..10 and plants one in each
// bucket the (male, english) fallback walk visits, in walk order.
func seedMatcherPool(t *testing.T, f *fixture) *matchmaking.Matcher {
	t.Helper()

	users := []db.User{
		{ID: 7, Username: "u7", Gender: db.GenderMale, UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
		{ID: 8, Username: "u8", Gender: db.GenderMale, UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
		{ID: 9, Username: "u9", Gender: db.GenderFemale, UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
		{ID: 10, Username: "u10x", Gender: db.GenderFemale, UnlockedFeatures: db.FeatureSet{}, BlockedUsers: db.IDSet{}},
	}
	require.NoError(t, f.gdb.Create(&users).Error)

	buckets := []struct {
		gender db.Gender
		lang   db.Language
		id     string
	}{
		{db.GenderMale, db.LanguageEnglish, "7"},
		{db.GenderMale, db.LanguageAny, "8"},
		{db.GenderUnknown, db.LanguageEnglish, "9"},
		{db.GenderUnknown, db.LanguageAny, "10"},
	}
	for _, b := range buckets {
		_, err := f.mr.Push(cache.KeyForQueue(int(b.gender), string(b.lang)), b.id)
		require.NoError(t, err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	qm := matchmaking.NewQueueManager(f.rdb, repository.NewUserRepository(f.gdb), log, 10, 5*time.Minute)
	return matchmaking.NewMatcher(qm)
}

// TestTryMatchFallbackOrder drains one candidate per call, proving the
// walk order: exact bucket, then relaxed language, then relaxed
// gender, then both relaxed, then nothing.
func TestTryMatchFallbackOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.gdb.Exec("DELETE FROM users").Error)
	matcher := seedMatcherPool(t, f)

	caller := &db.User{ID: 6, BlockedUsers: db.IDSet{}}

	want := []int64{7, 8, 9, 10}
	for _, expected := range want {
		cand, err := matcher.TryMatch(ctx, caller, db.GenderMale, db.LanguageEnglish)
		require.NoError(t, err)
		require.NotNil(t, cand)
		assert.Equal(t, expected, cand.UserID)
	}

	cand, err := matcher.TryMatch(ctx, caller, db.GenderMale, db.LanguageEnglish)
	require.NoError(t, err)
	assert.Nil(t, cand)
}

// TestTryMatchSkipsDuplicateSteps verifies a fully relaxed caller scans
// only the (any, any) bucket.
func TestTryMatchSkipsDuplicateSteps(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.gdb.Exec("DELETE FROM users").Error)
	matcher := seedMatcherPool(t, f)

	caller := &db.User{ID: 6, BlockedUsers: db.IDSet{}}

	cand, err := matcher.TryMatch(ctx, caller, db.GenderUnknown, db.LanguageAny)
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, int64(10), cand.UserID)

	// The other buckets were never touched.
	assert.Equal(t, 1, queueLen(t, f, db.GenderMale, db.LanguageEnglish))
	assert.Equal(t, 1, queueLen(t, f, db.GenderMale, db.LanguageAny))
	assert.Equal(t, 1, queueLen(t, f, db.GenderUnknown, db.LanguageEnglish))
}

// TestTryMatchReportsBucket verifies the candidate carries the bucket
// it came from, so a failed pair creation can requeue it in place.
func TestTryMatchReportsBucket(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.gdb.Exec("DELETE FROM users").Error)
	matcher := seedMatcherPool(t, f)

	caller := &db.User{ID: 6, BlockedUsers: db.IDSet{}}

	cand, err := matcher.TryMatch(ctx, caller, db.GenderFemale, db.LanguageEnglish)
	require.NoError(t, err)
	require.NotNil(t, cand)
	// (female, english) is empty; the relaxed-gender step finds 9.
	assert.Equal(t, int64(9), cand.UserID)
	assert.Equal(t, db.GenderUnknown, cand.GenderFilter)
	assert.Equal(t, db.LanguageEnglish, cand.LangFilter)
}
