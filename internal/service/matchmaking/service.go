package matchmaking

import (
	"context"
	"time"

	"github.com/chatlink/anonchat/internal/app"
	"github.com/chatlink/anonchat/internal/config"
	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/repository"
	"github.com/chatlink/anonchat/internal/service/ratelimit"
)

// ModerationGate is the boundary to the content moderation
// collaborator. The engine treats it as pass/fail and never implements
// its rules.
type ModerationGate interface {
	Check(text string) (sanitized string, ok bool, reason string)
}

// Service orchestrates the inbound user events: find chat, cancel
// search, end chat, send message, block, report. It composes the queue
// manager, matcher, pair lifecycle manager and rate limiter.
type Service struct {
	appCtx   *app.AppContext
	cfg      *config.Config
	users    *repository.UserRepository
	pairRepo *repository.PairRepository
	messages *repository.MessageRepository
	reports  *repository.ReportRepository
	queues   *QueueManager
	matcher  *Matcher
	pairs    *PairManager
	limiter  *ratelimit.Limiter
	gate     ModerationGate
}

// ExcerptSize bounds how many recent messages a report captures.
const ExcerptSize = 20

func NewService(appCtx *app.AppContext, cfg *config.Config, gate ModerationGate) *Service {
	users := repository.NewUserRepository(appCtx.DB)
	pairRepo := repository.NewPairRepository(appCtx.DB)
	queues := NewQueueManager(appCtx.RedisCache, users, appCtx.Logger, cfg.Match.ScanLimit, cfg.Match.WaitingTTL)

	return &Service{
		appCtx:   appCtx,
		cfg:      cfg,
		users:    users,
		pairRepo: pairRepo,
		messages: repository.NewMessageRepository(appCtx.DB),
		reports:  repository.NewReportRepository(appCtx.DB),
		queues:   queues,
		matcher:  NewMatcher(queues),
		pairs:    NewPairManager(pairRepo, appCtx.RedisCache, appCtx.Logger, cfg.Match.ChattingTTL),
		limiter:  ratelimit.New(appCtx.RedisCache, appCtx.Logger),
		gate:     gate,
	}
}

// Queues exposes the queue manager for collaborators (admin stats).
func (s *Service) Queues() *QueueManager { return s.queues }

// Pairs exposes the pair lifecycle manager for collaborators (admin
// force-pair and disconnect).
func (s *Service) Pairs() *PairManager { return s.pairs }

// MatchResult is the outcome of a find-chat event.
type MatchResult struct {
	Matched   bool
	PairID    string
	PartnerID int64
}

// FindChat enqueues the user and immediately tries to match. When the
// user holds the partner-preference unlock and has set a preference,
// it narrows the gender filter; otherwise the filter is "any".
func (s *Service) FindChat(ctx context.Context, userID int64) (*MatchResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, svcErr.NotFound("user is not registered")
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, svcErr.ErrBanned
	}

	if pairID, err := s.pairs.GetActivePair(ctx, userID); err != nil {
		return nil, err
	} else if pairID != "" {
		return nil, svcErr.ErrAlreadyChatting
	}

	genderFilter := db.GenderUnknown
	if user.UnlockedFeatures.PartnerPreference && user.GenderPreference != db.GenderUnknown {
		genderFilter = user.GenderPreference
	}
	langFilter := user.LanguagePreference
	if !langFilter.Valid() {
		langFilter = db.LanguageAny
	}

	if err := s.queues.Enqueue(ctx, user, genderFilter, langFilter); err != nil {
		return nil, err
	}

	candidate, err := s.matcher.TryMatch(ctx, user, genderFilter, langFilter)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return &MatchResult{Matched: false}, nil
	}

	pairID, err := s.pairs.CreatePair(ctx, userID, candidate.UserID, langFilter)
	if err != nil {
		// The candidate was consumed by the dequeue; give their slot
		// back so the failure costs them nothing.
		if rqErr := s.queues.Requeue(ctx, candidate.GenderFilter, candidate.LangFilter, candidate.UserID); rqErr != nil {
			s.appCtx.Logger.Error("failed to requeue candidate after pair failure", "user", candidate.UserID, "err", rqErr)
		}
		return nil, err
	}

	// The caller enqueued itself just before matching; take that entry
	// back out now that it is paired.
	if _, err := s.queues.RemoveFromAllQueues(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("failed to dequeue matched caller", "user", userID, "err", err)
	}

	return &MatchResult{Matched: true, PairID: pairID, PartnerID: candidate.UserID}, nil
}

// CancelSearch removes the user from every queue bucket and clears the
// waiting tag. The removal is unconditional, so a cancel racing a match
// can lose without leaving the user queued forever.
func (s *Service) CancelSearch(ctx context.Context, userID int64) error {
	if _, err := s.queues.RemoveFromAllQueues(ctx, userID); err != nil {
		return err
	}
	return s.queues.ClearWaiting(ctx, userID)
}

// EndChat terminates the user's active pair.
func (s *Service) EndChat(ctx context.Context, userID int64) error {
	pairID, err := s.pairs.GetActivePair(ctx, userID)
	if err != nil {
		return err
	}
	if pairID == "" {
		return svcErr.ErrNotInChat
	}
	return s.pairs.EndPair(ctx, pairID)
}

// NextPartner ends the current chat, if any, and immediately searches
// for a new one.
func (s *Service) NextPartner(ctx context.Context, userID int64) (*MatchResult, error) {
	pairID, err := s.pairs.GetActivePair(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pairID != "" {
		if err := s.pairs.EndPair(ctx, pairID); err != nil {
			return nil, err
		}
	}
	return s.FindChat(ctx, userID)
}

// SendStatus classifies the outcome of a send-message event. Rate
// limiting and moderation rejections are normal outcomes, not errors.
type SendStatus string

const (
	SendForwarded   SendStatus = "forwarded"
	SendRateLimited SendStatus = "rate_limited"
	SendRejected    SendStatus = "rejected"
	SendNoChat      SendStatus = "no_active_chat"
)

// SendResult carries the forwarding decision for the message-delivery
// collaborator: who to deliver to and the sanitized text.
type SendResult struct {
	Status    SendStatus
	Reason    string
	PartnerID int64
	Text      string
}

// SendMessage runs the message pipeline: rate limit, pair resolution,
// moderation gate, durable append, forwarding decision.
func (s *Service) SendMessage(ctx context.Context, userID int64, text string) (*SendResult, error) {
	if !s.limiter.Allow(ctx, userID, s.cfg.Rate.MessagesPerWindow, s.cfg.Rate.Window) {
		return &SendResult{Status: SendRateLimited, Reason: "sending messages too fast"}, nil
	}

	pairID, err := s.pairs.GetActivePair(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pairID == "" {
		return &SendResult{Status: SendNoChat}, nil
	}

	sanitized, ok, reason := s.gate.Check(text)
	if !ok {
		return &SendResult{Status: SendRejected, Reason: reason}, nil
	}

	pair, err := s.pairRepo.GetByID(ctx, pairID)
	if err != nil {
		if isNotFound(err) {
			return &SendResult{Status: SendNoChat}, nil
		}
		return nil, err
	}
	if !pair.IsActive {
		return &SendResult{Status: SendNoChat}, nil
	}
	partnerID := pair.Partner(userID)

	// Logging and timestamping are best effort; a log write failure
	// must not block the conversation itself.
	now := time.Now().UTC()
	if err := s.messages.Append(ctx, &db.Message{PairID: pairID, FromID: userID, Content: sanitized}); err != nil {
		s.appCtx.Logger.Error("failed to store message", "pair", pairID, "err", err)
	}
	if err := s.pairRepo.TouchLastMessage(ctx, pairID, now); err != nil {
		s.appCtx.Logger.Error("failed to touch pair", "pair", pairID, "err", err)
	}

	return &SendResult{Status: SendForwarded, PartnerID: partnerID, Text: sanitized}, nil
}

// BlockPartner adds the current partner to the user's block set and
// ends the chat.
func (s *Service) BlockPartner(ctx context.Context, userID int64) error {
	pairID, err := s.pairs.GetActivePair(ctx, userID)
	if err != nil {
		return err
	}
	if pairID == "" {
		return svcErr.ErrNotInChat
	}

	pair, err := s.pairRepo.GetByID(ctx, pairID)
	if err != nil {
		return err
	}
	partnerID := pair.Partner(userID)

	if err := s.users.AddBlockedUser(ctx, userID, partnerID); err != nil {
		return err
	}
	return s.pairs.EndPair(ctx, pairID)
}

// ReportPartner files a report against the current partner, attaching
// a bounded excerpt of the most recent messages. The chat stays open;
// the reporter can follow up with a block or end on their own.
func (s *Service) ReportPartner(ctx context.Context, userID int64, reason string) error {
	pairID, err := s.pairs.GetActivePair(ctx, userID)
	if err != nil {
		return err
	}
	if pairID == "" {
		return svcErr.ErrNotInChat
	}

	pair, err := s.pairRepo.GetByID(ctx, pairID)
	if err != nil {
		return err
	}
	partnerID := pair.Partner(userID)

	msgs, err := s.messages.RecentForPair(ctx, pairID, ExcerptSize)
	if err != nil {
		return err
	}
	excerpt := make(db.Excerpt, 0, len(msgs))
	for _, m := range msgs {
		excerpt = append(excerpt, db.ExcerptMessage{
			FromID:  m.FromID,
			Content: m.Content,
			SentAt:  m.CreatedAt.Unix(),
		})
	}

	return s.reports.Create(ctx, &db.Report{
		PairID:              pairID,
		ReportedBy:          userID,
		ReportedUser:        partnerID,
		Reason:              reason,
		ConversationExcerpt: excerpt,
	})
}

// CloseInactivePairs ends every active pair whose last message is older
// than the configured inactivity window. Run periodically by the
// janitor.
func (s *Service) CloseInactivePairs(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.Match.InactivityWindow)
	ids, err := s.pairRepo.ListActiveIdleSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, pairID := range ids {
		if err := s.pairs.EndPair(ctx, pairID); err != nil {
			s.appCtx.Logger.Error("failed to close inactive pair", "pair", pairID, "err", err)
			continue
		}
		closed++
	}
	return closed, nil
}

// PurgeOldMessages deletes messages past the retention window. Run
// periodically by the janitor.
func (s *Service) PurgeOldMessages(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention.Messages)
	return s.messages.DeleteOlderThan(ctx, cutoff)
}
