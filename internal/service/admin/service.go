package admin

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/repository"
	"github.com/chatlink/anonchat/internal/service/matchmaking"
)

// Service implements the admin surface: bounded sessions granted by a
// shared secret, ban management, forced pairing, disconnects and
// operator stats. Every action lands in the audit log.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	pairRepo   *repository.PairRepository
	logs       *repository.AdminLogRepository
	pairs      *matchmaking.PairManager
	queues     *matchmaking.QueueManager
	secretHash string
	sessionDur time.Duration
}

func NewService(appCtx *app.AppContext, cfg *config.Config, engine *matchmaking.Service) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		pairRepo:   repository.NewPairRepository(appCtx.DB),
		logs:       repository.NewAdminLogRepository(appCtx.DB),
		pairs:      engine.Pairs(),
		queues:     engine.Queues(),
		secretHash: cfg.Admin.SecretHash,
		sessionDur: cfg.Admin.SessionDuration,
	}
}

// Authenticate verifies the shared secret and grants the user a
// time-bounded admin session.
func (s *Service) Authenticate(ctx context.Context, userID int64, secret string) error {
	if s.secretHash == "" {
		return svcErr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.secretHash), []byte(secret)); err != nil {
		return svcErr.ErrUnauthorized
	}

	expiry := time.Now().UTC().Add(s.sessionDur)
	if err := s.users.SetAdminSession(ctx, userID, expiry); err != nil {
		return err
	}
	s.audit(ctx, userID, "login", db.Metadata{"expiry": expiry.Unix()})
	return nil
}

// CheckAccess reports whether the user holds a valid admin session.
// An expired session is revoked on the spot.
func (s *Service) CheckAccess(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsAdmin {
		return false, nil
	}
	if user.AdminSessionExpiry != nil && time.Now().UTC().After(*user.AdminSessionExpiry) {
		if err := s.users.ClearAdminSession(ctx, userID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Ban flags a user. Their queued entries stay in place; the dequeue
// path drops banned candidates on sight.
func (s *Service) Ban(ctx context.Context, adminID, targetID int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.users.SetBanned(ctx, targetID, true); err != nil {
		return err
	}
	s.audit(ctx, adminID, "ban", db.Metadata{"target": targetID})
	return nil
}

// Unban clears the ban flag.
func (s *Service) Unban(ctx context.Context, adminID, targetID int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.users.SetBanned(ctx, targetID, false); err != nil {
		return err
	}
	s.audit(ctx, adminID, "unban", db.Metadata{"target": targetID})
	return nil
}

// ForcePair pairs two users directly, skipping the queues.
func (s *Service) ForcePair(ctx context.Context, adminID, userA, userB int64, language db.Language) (string, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return "", err
	}
	if userA == userB {
		return "", svcErr.InvalidArgument("cannot pair a user with themselves")
	}
	if !language.Valid() {
		language = db.LanguageAny
	}

	pairID, err := s.pairs.CreatePair(ctx, userA, userB, language)
	if err != nil {
		return "", err
	}
	s.audit(ctx, adminID, "force_pair", db.Metadata{"user_a": userA, "user_b": userB, "pair": pairID})
	return pairID, nil
}

// Disconnect ends the target user's active chat.
func (s *Service) Disconnect(ctx context.Context, adminID, targetID int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	pairID, err := s.pairs.GetActivePair(ctx, targetID)
	if err != nil {
		return err
	}
	if pairID == "" {
		return svcErr.ErrNotInChat
	}
	if err := s.pairs.EndPair(ctx, pairID); err != nil {
		return err
	}
	s.audit(ctx, adminID, "disconnect", db.Metadata{"target": targetID, "pair": pairID})
	return nil
}

// PairInfo returns the target user's most recent active pair.
func (s *Service) PairInfo(ctx context.Context, adminID, targetID int64) (*db.Pair, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	pair, err := s.pairRepo.GetActiveForUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "view_pair", db.Metadata{"target": targetID})
	return pair, nil
}

// OnlineStats summarizes live load for operators.
type OnlineStats struct {
	WaitingUsers  int64            `json:"waiting_users"`
	ChattingUsers int64            `json:"chatting_users"`
	ActivePairs   int64            `json:"active_pairs"`
	QueueSizes    map[string]int64 `json:"queue_sizes"`
}

// Stats derives headcounts from the queue lengths and the active pair
// count instead of scanning per-user state keys.
func (s *Service) Stats(ctx context.Context, adminID int64) (*OnlineStats, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	sizes, err := s.queues.Sizes(ctx)
	if err != nil {
		return nil, err
	}
	var waiting int64
	for _, n := range sizes {
		waiting += n
	}

	activePairs, err := s.pairRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	return &OnlineStats{
		WaitingUsers:  waiting,
		ChattingUsers: activePairs * 2,
		ActivePairs:   activePairs,
		QueueSizes:    sizes,
	}, nil
}

// AuditTrail returns the admin's most recent audit entries, newest
// first.
func (s *Service) AuditTrail(ctx context.Context, adminID int64, limit int) ([]db.AdminLog, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.logs.RecentForAdmin(ctx, adminID, limit)
}

func (s *Service) requireAdmin(ctx context.Context, adminID int64) error {
	ok, err := s.CheckAccess(ctx, adminID)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.ErrUnauthorized
	}
	return nil
}

func (s *Service) audit(ctx context.Context, adminID int64, action string, meta db.Metadata) {
	if err := s.logs.Append(ctx, adminID, action, meta); err != nil {
		s.appCtx.Logger.Error("failed to write admin log", "admin", adminID, "action", action, "err", err)
	}
}
