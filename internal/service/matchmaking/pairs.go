package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/db"
	"github.com/chatlink/anonchat/internal/repository"
)

// PairManager creates, resolves and terminates pairings, keeping the
// durable pairs table and the cache session index consistent. The
// durable record is authoritative; the cache is an accelerator that may
// be stale-empty but never stale-wrong.
type PairManager struct {
	pairs       *repository.PairRepository
	rdb         *cache.RedisCache
	log         *slog.Logger
	chattingTTL time.Duration
}

func NewPairManager(pairs *repository.PairRepository, rdb *cache.RedisCache, log *slog.Logger, chattingTTL time.Duration) *PairManager {
	return &PairManager{
		pairs:       pairs,
		rdb:         rdb,
		log:         log,
		chattingTTL: chattingTTL,
	}
}

// CreatePair writes the durable pair record, then the cache index for
// both participants. The durable write is the authoritative step; when
// it fails the cache is never touched. A cache failure after a
// successful durable write is logged and tolerated, because
// GetActivePair falls back to the durable query.
func (p *PairManager) CreatePair(ctx context.Context, userA, userB int64, language db.Language) (string, error) {
	pairID := uuid.NewString()
	now := time.Now().UTC()

	pair := &db.Pair{
		PairID:        pairID,
		UserA:         userA,
		UserB:         userB,
		StartedAt:     now,
		LastMessageAt: now,
		IsActive:      true,
		LanguageUsed:  language,
	}
	if err := p.pairs.Create(ctx, pair); err != nil {
		return "", fmt.Errorf("create pair record: %w", err)
	}

	for _, userID := range []int64{userA, userB} {
		if err := p.rdb.Set(ctx, cache.KeyForUserPair(userID), pairID, p.chattingTTL); err != nil {
			p.log.Warn("pair index cache write failed", "pair", pairID, "user", userID, "err", err)
		}
		if err := p.rdb.Set(ctx, cache.KeyForUserState(userID), string(StateChatting), p.chattingTTL); err != nil {
			p.log.Warn("state cache write failed", "pair", pairID, "user", userID, "err", err)
		}
	}

	p.log.Info("created pair", "pair", pairID, "user_a", userA, "user_b", userB, "language", language)
	return pairID, nil
}

// GetActivePair resolves the user's active pair id, cache first. On a
// cache miss the durable store is queried, but the cache is not
// repopulated here: entries only ever appear through CreatePair, which
// keeps a cached entry trustworthy. Returns "" when the user has no
// active pair.
func (p *PairManager) GetActivePair(ctx context.Context, userID int64) (string, error) {
	pairID, err := p.rdb.Get(ctx, cache.KeyForUserPair(userID))
	if err == nil {
		return pairID, nil
	}
	if !cache.IsMiss(err) {
		return "", fmt.Errorf("read pair index: %w", err)
	}

	pair, err := p.pairs.GetActiveForUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("query active pair: %w", err)
	}
	return pair.PairID, nil
}

// EndPair flips the durable record to inactive and synchronously
// deletes all four cache keys of both participants. Safe to repeat:
// the flip and the deletes are idempotent. A cache failure is returned
// so the caller can retry, otherwise the index could keep pointing at
// an inactive pair.
func (p *PairManager) EndPair(ctx context.Context, pairID string) error {
	pair, err := p.pairs.Deactivate(ctx, pairID)
	if err != nil {
		return fmt.Errorf("deactivate pair %s: %w", pairID, err)
	}

	keys := []string{
		cache.KeyForUserPair(pair.UserA),
		cache.KeyForUserPair(pair.UserB),
		cache.KeyForUserState(pair.UserA),
		cache.KeyForUserState(pair.UserB),
	}
	if err := p.rdb.Del(ctx, keys...); err != nil {
		return fmt.Errorf("clear pair cache for %s: %w", pairID, err)
	}

	p.log.Info("ended pair", "pair", pairID)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
