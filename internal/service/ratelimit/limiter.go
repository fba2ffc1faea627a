package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/chatlink/anonchat/internal/cache"
)

// Limiter is a fixed-window counter per user backed by the shared
// Redis cache. The first action in a window creates a TTL-bound counter
// at 1; later actions increment it until the limit, after which Allow
// returns false without incrementing further.
type Limiter struct {
	rdb *cache.RedisCache
	log *slog.Logger
}

func New(rdb *cache.RedisCache, log *slog.Logger) *Limiter {
	return &Limiter{rdb: rdb, log: log}
}

// Allow reports whether the user may perform another action in the
// current window. On any cache failure the limiter fails open:
// availability of chat beats strict enforcement.
func (l *Limiter) Allow(ctx context.Context, userID int64, limit int, window time.Duration) bool {
	key := cache.KeyForRateLimit(userID)

	raw, err := l.rdb.Get(ctx, key)
	if cache.IsMiss(err) {
		if err := l.rdb.Set(ctx, key, 1, window); err != nil {
			l.log.Warn("rate limiter unavailable, failing open", "user", userID, "err", err)
		}
		return true
	}
	if err != nil {
		l.log.Warn("rate limiter unavailable, failing open", "user", userID, "err", err)
		return true
	}

	count, perr := strconv.Atoi(raw)
	if perr != nil {
		l.log.Warn("rate limiter counter malformed, failing open", "user", userID, "value", raw)
		return true
	}
	if count >= limit {
		return false
	}

	if _, err := l.rdb.Incr(ctx, key); err != nil {
		l.log.Warn("rate limiter increment failed, failing open", "user", userID, "err", err)
	}
	return true
}
