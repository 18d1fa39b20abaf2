package recommend

import (
	"context"
	"sync"
	"time"

	"movie-discovery-recommender/internal/models"
)

// fakeCatalog serves canned pages. Missing entries are failed requests.
type fakeCatalog struct {
	mu         sync.Mutex
	similar    map[int][]models.CatalogItem
	popular    map[int][]models.CatalogItem // by page
	totalPages int
	details    map[int]models.CatalogItem
	providers  map[int][]string
	calls      map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		similar:   map[int][]models.CatalogItem{},
		popular:   map[int][]models.CatalogItem{},
		details:   map[int]models.CatalogItem{},
		providers: map[int][]string{},
		calls:     map[string]int{},
	}
}

func (f *fakeCatalog) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeCatalog) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) FetchItemDetails(_ context.Context, _ models.Kind, id int) (*models.CatalogItem, bool) {
	f.count("details")
	item, ok := f.details[id]
	if !ok {
		return nil, false
	}
	return &item, true
}

func (f *fakeCatalog) FetchSimilarItems(_ context.Context, _ models.Kind, id, page int) (*models.Page, bool) {
	f.count("similar")
	items, ok := f.similar[id]
	if !ok {
		return nil, false
	}
	return &models.Page{Page: page, TotalPages: 1, Items: items}, true
}

func (f *fakeCatalog) FetchPopular(_ context.Context, _ models.Kind, page int) (*models.Page, bool) {
	f.count("popular")
	items, ok := f.popular[page]
	if !ok {
		return nil, false
	}
	return &models.Page{Page: page, TotalPages: f.totalPages, Items: items}, true
}

func (f *fakeCatalog) FetchProviders(_ context.Context, _ models.Kind, id int) ([]string, bool) {
	f.count("providers")
	names, ok := f.providers[id]
	return names, ok
}

// fakeStore keeps users, ratings and the item cache in memory.
type fakeStore struct {
	mu      sync.Mutex
	users   map[int]bool
	rated   []models.RatedItem
	cached  map[int]models.CatalogItem // by remote id
	nextID  int
	ratedAt time.Time
}

func newFakeStore(userIDs ...int) *fakeStore {
	s := &fakeStore{
		users:   map[int]bool{},
		cached:  map[int]models.CatalogItem{},
		nextID:  1000,
		ratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range userIDs {
		s.users[id] = true
	}
	return s
}

// rate appends a rating; later calls are more recent.
func (s *fakeStore) rate(userID int, item models.CatalogItem, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratedAt = s.ratedAt.Add(time.Minute)
	s.nextID++
	item.LocalID = s.nextID
	s.rated = append(s.rated, models.RatedItem{
		Rating: models.Rating{UserID: userID, LocalItemID: item.LocalID, Score: score, RatedAt: s.ratedAt},
		Item:   item,
	})
}

func (s *fakeStore) GetUser(_ context.Context, id int) (*models.User, error) {
	if !s.users[id] {
		return nil, models.ErrUserNotFound
	}
	return &models.User{ID: id, Username: "u"}, nil
}

func (s *fakeStore) GetRatingsForUser(_ context.Context, userID int, kind models.Kind) ([]models.RatedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RatedItem
	for i := len(s.rated) - 1; i >= 0; i-- {
		r := s.rated[i]
		if r.UserID == userID && r.Item.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertCachedItem(_ context.Context, item models.CatalogItem) (*models.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cached[item.RemoteID]; ok {
		item.LocalID = existing.LocalID
	} else {
		s.nextID++
		item.LocalID = s.nextID
	}
	s.cached[item.RemoteID] = item
	return &item, nil
}

func movie(id int, genres ...string) models.CatalogItem {
	return models.CatalogItem{
		RemoteID:    id,
		Kind:        models.KindMovie,
		Title:       "movie",
		Year:        intp(2010),
		Genres:      genres,
		Language:    "en",
		VoteAverage: 7.5,
		VoteCount:   100,
	}
}

func remoteIDs(items []models.CatalogItem) []int {
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.RemoteID)
	}
	return ids
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
