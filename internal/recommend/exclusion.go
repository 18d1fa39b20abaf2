package recommend

import (
	"context"
	"fmt"

	"movie-discovery-recommender/internal/models"
)

// RatingLister is the part of the interaction store the exclusion set is
// rebuilt from.
type RatingLister interface {
	GetRatingsForUser(ctx context.Context, userID int, kind models.Kind) ([]models.RatedItem, error)
}

// ExclusionSet holds remote ids that must not be recommended again in the
// current session. It only grows. Not safe for concurrent mutation; a
// session owns its set.
type ExclusionSet struct {
	ids map[int]struct{}
}

// NewExclusionSet returns a set holding ids.
func NewExclusionSet(ids ...int) *ExclusionSet {
	s := &ExclusionSet{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Initial builds the session's starting set from every item the user has
// rated for kind, liked or not.
func Initial(ctx context.Context, store RatingLister, userID int, kind models.Kind) (*ExclusionSet, error) {
	rated, err := store.GetRatingsForUser(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	s := NewExclusionSet()
	for _, r := range rated {
		s.Add(r.Item.RemoteID)
	}
	return s, nil
}

// Add excludes id. Adding an id twice is a no-op.
func (s *ExclusionSet) Add(id int) {
	if s.ids == nil {
		s.ids = make(map[int]struct{})
	}
	s.ids[id] = struct{}{}
}

// Contains reports whether id is excluded. A nil set excludes nothing.
func (s *ExclusionSet) Contains(id int) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of excluded ids.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
