package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chatlink/anonchat/internal/cache"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/repository"
)

// QueueManager maintains one waiting list per (gender filter, language
// filter) bucket in Redis. A user id lives in at most one bucket at a
// time.
type QueueManager struct {
	rdb        *cache.RedisCache
	users      *repository.UserRepository
	log        *slog.Logger
	scanLimit  int
	waitingTTL time.Duration
}

func NewQueueManager(rdb *cache.RedisCache, users *repository.UserRepository, log *slog.Logger, scanLimit int, waitingTTL time.Duration) *QueueManager {
	if scanLimit <= 0 {
		scanLimit = 10
	}
	return &QueueManager{
		rdb:        rdb,
		users:      users,
		log:        log,
		scanLimit:  scanLimit,
		waitingTTL: waitingTTL,
	}
}

// bucketKeys enumerates every possible bucket. The filter domains are
// small and fixed, so scanning key patterns on the cache is never
// needed.
func bucketKeys() []string {
	keys := make([]string, 0, len(db.Genders())*len(db.Languages()))
	for _, g := range db.Genders() {
		for _, l := range db.Languages() {
			keys = append(keys, cache.KeyForQueue(int(g), string(l)))
		}
	}
	return keys
}

// Enqueue places the user into the bucket for the given filters.
//
// The user's id is first purged from every other bucket, enforcing
// single queue membership. The activity tag is set to waiting with a
// bounded TTL so abandoned searches age out on their own.
func (q *QueueManager) Enqueue(ctx context.Context, user *db.User, genderFilter db.Gender, langFilter db.Language) error {
	if !genderFilter.Valid() {
		return svcErr.InvalidArgument("invalid gender filter")
	}
	if !langFilter.Valid() {
		return svcErr.InvalidArgument("invalid language filter")
	}

	state, err := q.State(ctx, user.ID)
	if err != nil {
		return err
	}
	if !CanTransition(state, StateWaiting) {
		return svcErr.ErrAlreadyChatting
	}

	if _, err := q.RemoveFromAllQueues(ctx, user.ID); err != nil {
		return err
	}

	key := cache.KeyForQueue(int(genderFilter), string(langFilter))
	if err := q.rdb.LPush(ctx, key, strconv.FormatInt(user.ID, 10)); err != nil {
		return fmt.Errorf("push to queue %s: %w", key, err)
	}
	if err := q.rdb.Set(ctx, cache.KeyForUserState(user.ID), string(StateWaiting), q.waitingTTL); err != nil {
		return fmt.Errorf("set waiting state: %w", err)
	}

	q.log.Debug("enqueued user", "user", user.ID, "bucket", key)
	return nil
}

// DequeueCandidate pops from the tail of the bucket until it finds a
// candidate the caller can be paired with, inspecting at most scanLimit
// entries so a poisoned queue cannot stall the matcher.
//
// A popped candidate that turns out to be the caller goes back to the
// head. Candidates that are banned, that the caller has blocked, that
// have blocked the caller, or that have no user record are discarded,
// not requeued. Returns 0 when the bucket yields no valid candidate;
// a store failure is returned as an error, never as "no match".
func (q *QueueManager) DequeueCandidate(ctx context.Context, genderFilter db.Gender, langFilter db.Language, caller *db.User) (int64, error) {
	key := cache.KeyForQueue(int(genderFilter), string(langFilter))

	for i := 0; i < q.scanLimit; i++ {
		raw, err := q.rdb.RPop(ctx, key)
		if cache.IsMiss(err) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("pop from queue %s: %w", key, err)
		}

		candidateID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			q.log.Warn("dropping malformed queue entry", "bucket", key, "value", raw)
			continue
		}

		if candidateID == caller.ID {
			// Put self back at the head and keep scanning.
			if err := q.rdb.LPush(ctx, key, raw); err != nil {
				return 0, fmt.Errorf("requeue self on %s: %w", key, err)
			}
			continue
		}

		candidate, err := q.users.GetByID(ctx, candidateID)
		if err != nil {
			if isNotFound(err) {
				q.log.Warn("dropping queue entry with no user record", "bucket", key, "user", candidateID)
				continue
			}
			return 0, fmt.Errorf("load candidate %d: %w", candidateID, err)
		}

		// Banned or blocked candidates are dropped rather than
		// requeued: a banned user must not hold a slot and a blocked
		// relationship must not be offered again right away.
		if candidate.IsBanned {
			q.log.Debug("dropping banned candidate", "user", candidateID)
			continue
		}
		if caller.BlockedUsers.Contains(candidateID) || candidate.BlockedUsers.Contains(caller.ID) {
			q.log.Debug("dropping blocked candidate", "user", candidateID, "caller", caller.ID)
			continue
		}

		return candidateID, nil
	}

	return 0, nil
}

// Requeue pushes a candidate back into a bucket after a downstream
// failure, so a dequeued user is not silently lost when pair creation
// fails.
func (q *QueueManager) Requeue(ctx context.Context, genderFilter db.Gender, langFilter db.Language, userID int64) error {
	key := cache.KeyForQueue(int(genderFilter), string(langFilter))
	return q.rdb.LPush(ctx, key, strconv.FormatInt(userID, 10))
}

// RemoveFromAllQueues purges the user's id from every bucket. The
// removal is unconditional: even if a match races with a cancel, the
// loser must not stay queued forever.
func (q *QueueManager) RemoveFromAllQueues(ctx context.Context, userID int64) (bool, error) {
	val := strconv.FormatInt(userID, 10)
	removed := false
	for _, key := range bucketKeys() {
		n, err := q.rdb.LRem(ctx, key, val)
		if err != nil {
			return removed, fmt.Errorf("remove from queue %s: %w", key, err)
		}
		if n > 0 {
			removed = true
		}
	}
	return removed, nil
}

// State reads the user's activity tag; a missing or expired key is
// idle.
func (q *QueueManager) State(ctx context.Context, userID int64) (ActivityState, error) {
	raw, err := q.rdb.Get(ctx, cache.KeyForUserState(userID))
	if cache.IsMiss(err) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("read user state: %w", err)
	}
	return ParseActivityState(raw), nil
}

// ClearWaiting drops the waiting tag if that is the current state.
// Chatting tags are left alone; only EndPair clears those.
func (q *QueueManager) ClearWaiting(ctx context.Context, userID int64) error {
	state, err := q.State(ctx, userID)
	if err != nil {
		return err
	}
	if state != StateWaiting {
		return nil
	}
	return q.rdb.Del(ctx, cache.KeyForUserState(userID))
}

// Sizes returns the length of every non-empty bucket keyed by bucket
// key. Used for operator stats.
func (q *QueueManager) Sizes(ctx context.Context) (map[string]int64, error) {
	sizes := make(map[string]int64)
	for _, key := range bucketKeys() {
		n, err := q.rdb.LLen(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("queue length %s: %w", key, err)
		}
		if n > 0 {
			sizes[key] = n
		}
	}
	return sizes, nil
}
