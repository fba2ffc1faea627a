package matchmaking

import (
	"context"

	"github.com/chatlink/anonchat/internal/db"
)

// Matcher walks the fallback order across queue buckets to find a
// compatible candidate: exact filters first, then relax language, then
// gender, then both. Precision over speed.
type Matcher struct {
	queues *QueueManager
}

func NewMatcher(queues *QueueManager) *Matcher {
	return &Matcher{queues: queues}
}

// Candidate is a dequeued match together with the bucket it was popped
// from, so a downstream failure can put it back where it came from.
type Candidate struct {
	UserID       int64
	GenderFilter db.Gender
	LangFilter   db.Language
}

// TryMatch searches the buckets in fallback order and returns the first
// valid candidate, or nil when every step comes up empty. Steps that
// would duplicate the exact bucket are skipped. A store failure at any
// step aborts the search; it is never reported as "no match".
func (m *Matcher) TryMatch(ctx context.Context, caller *db.User, genderFilter db.Gender, langFilter db.Language) (*Candidate, error) {
	steps := []struct {
		gender db.Gender
		lang   db.Language
		skip   bool
	}{
		{genderFilter, langFilter, false},
		{genderFilter, db.LanguageAny, langFilter == db.LanguageAny},
		{db.GenderUnknown, langFilter, genderFilter == db.GenderUnknown},
		{db.GenderUnknown, db.LanguageAny, genderFilter == db.GenderUnknown || langFilter == db.LanguageAny},
	}

	for _, step := range steps {
		if step.skip {
			continue
		}
		candidateID, err := m.queues.DequeueCandidate(ctx, step.gender, step.lang, caller)
		if err != nil {
			return nil, err
		}
		if candidateID != 0 {
			return &Candidate{
				UserID:       candidateID,
				GenderFilter: step.gender,
				LangFilter:   step.lang,
			}, nil
		}
	}

	return nil, nil
}
