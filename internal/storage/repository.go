package storage

import (
	"context"
	"sort"
)

// SeenSet holds the ids of listings that were already notified.
type SeenSet map[string]struct{}

func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

// IDs returns the ids in sorted order.
func (s SeenSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SeenStore persists the seen-set between runs.
type SeenStore interface {
	// Load never fails: a missing or unreadable record yields an empty set.
	Load(ctx context.Context) SeenSet

	// Save overwrites the record with the full set.
	Save(ctx context.Context, seen SeenSet) error
}
