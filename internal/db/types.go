package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// FeatureSet is the fixed shape of a user's unlocked features. It is
// stored as a JSON column but validated here at the store boundary, so
// the rest of the code never sees a loosely typed map.
type FeatureSet struct {
	PartnerPreference bool `json:"partner_preference"`
	SeeGender         bool `json:"see_gender"`
	SearchByAge       bool `json:"search_by_age"`
}

func (f FeatureSet) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal feature set: %w", err)
	}
	return string(b), nil
}

func (f *FeatureSet) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan feature set: %w", err)
	}
	if len(b) == 0 {
		*f = FeatureSet{}
		return nil
	}
	var parsed FeatureSet
	if err := json.Unmarshal(b, &parsed); err != nil {
		return fmt.Errorf("scan feature set: %w", err)
	}
	*f = parsed
	return nil
}

// IDSet is a set of user ids stored as a JSON array. Membership checks
// are O(1); serialization is sorted for stable rows.
type IDSet map[int64]struct{}

func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add returns true if the id was not already present.
func (s *IDSet) Add(id int64) bool {
	if *s == nil {
		*s = IDSet{}
	}
	if _, ok := (*s)[id]; ok {
		return false
	}
	(*s)[id] = struct{}{}
	return true
}

func (s IDSet) Value() (driver.Value, error) {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal id set: %w", err)
	}
	return string(b), nil
}

func (s *IDSet) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan id set: %w", err)
	}
	if len(b) == 0 {
		*s = IDSet{}
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("scan id set: %w", err)
	}
	out := make(IDSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	*s = out
	return nil
}

// Metadata carries free-form key/value context on admin log rows.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		m = Metadata{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	var parsed Metadata
	if err := json.Unmarshal(b, &parsed); err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	*m = parsed
	return nil
}

// ExcerptMessage is one line of the conversation excerpt attached to a
// report.
type ExcerptMessage struct {
	FromID  int64  `json:"from_id"`
	Content string `json:"content"`
	SentAt  int64  `json:"sent_at_unix"`
}

// Excerpt is the bounded slice of recent messages captured when a pair
// is reported.
type Excerpt []ExcerptMessage

func (e Excerpt) Value() (driver.Value, error) {
	if e == nil {
		e = Excerpt{}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal excerpt: %w", err)
	}
	return string(b), nil
}

func (e *Excerpt) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan excerpt: %w", err)
	}
	if len(b) == 0 {
		*e = Excerpt{}
		return nil
	}
	var parsed Excerpt
	if err := json.Unmarshal(b, &parsed); err != nil {
		return fmt.Errorf("scan excerpt: %w", err)
	}
	*e = parsed
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
