package db

import (
	"time"
)

// User table. The id is supplied by the messaging platform, never
// generated here. Rows are created once at onboarding completion and
// soft-mutated afterwards; users are never hard-deleted.
type User struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement:false"`
	Username           string `gorm:"size:64"`
	DisplayName        string `gorm:"size:32"`
	Gender             Gender `gorm:"not null;default:0"`
	GenderPreference   Gender `gorm:"not null;default:0"`
	LanguagePreference Language `gorm:"size:16;not null;default:any"`
	AgeRange           string   `gorm:"size:16"`
	IsBanned           bool     `gorm:"not null;default:false"`
	IsAdmin            bool     `gorm:"not null;default:false"`
	AdminSessionExpiry *time.Time
	ReferralsCount     int        `gorm:"not null;default:0"`
	UnlockedFeatures   FeatureSet `gorm:"type:json"`
	BlockedUsers       IDSet      `gorm:"type:json"`
	CreatedAt          time.Time  `gorm:"autoCreateTime"`
	LastActive         time.Time  `gorm:"autoUpdateTime"`
}

// Pair represents one two-party conversation, active or historical.
//
// Invariant: at most one row per user with is_active=true at any time.
// Rows are never deleted; EndPair only flips is_active.
//
// Indexes:
//   - idx_pairs_user_a_active(user_a, is_active) and the user_b twin
//     back the "active pair containing user" durable fallback query.
type Pair struct {
	PairID        string    `gorm:"primaryKey;size:36"`
	UserA         int64     `gorm:"not null;index:idx_pairs_user_a_active,priority:1"`
	UserB         int64     `gorm:"not null;index:idx_pairs_user_b_active,priority:1"`
	StartedAt     time.Time `gorm:"not null"`
	LastMessageAt time.Time `gorm:"not null"`
	IsActive      bool      `gorm:"not null;default:true;index:idx_pairs_user_a_active,priority:2;index:idx_pairs_user_b_active,priority:2"`
	LanguageUsed  Language  `gorm:"size:16"`
}

// Partner returns the other participant of the pair, or 0 when the
// given user is not a participant.
func (p *Pair) Partner(userID int64) int64 {
	switch userID {
	case p.UserA:
		return p.UserB
	case p.UserB:
		return p.UserA
	}
	return 0
}

// Message log, append-only from the engine's perspective. Rows older
// than the retention window are purged by a janitor.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PairID    string    `gorm:"size:36;not null;index"`
	FromID    int64     `gorm:"not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// Referral records one successful referral. The unique index rejects
// duplicate (referrer, referree) pairs.
type Referral struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ReferrerID int64     `gorm:"not null;uniqueIndex:idx_referrer_referree,priority:1"`
	ReferreeID int64     `gorm:"not null;uniqueIndex:idx_referrer_referree,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Report captures a user report against their current partner together
// with a bounded excerpt of the recent conversation.
type Report struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement"`
	PairID              string    `gorm:"size:36;not null;index"`
	ReportedBy          int64     `gorm:"not null"`
	ReportedUser        int64     `gorm:"not null;index"`
	Reason              string    `gorm:"size:255"`
	ConversationExcerpt Excerpt   `gorm:"type:json"`
	Status              string    `gorm:"size:16;not null;default:pending"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
}

// AdminLog records every admin action for audit.
type AdminLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AdminID   int64     `gorm:"not null;index"`
	Action    string    `gorm:"size:64;not null"`
	Metadata  Metadata  `gorm:"type:json"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
