package repository

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"movie-discovery-recommender/internal/database"
	"movie-discovery-recommender/internal/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db, database.SQLite)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func intp(v int) *int { return &v }

func TestUsers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("GetUser = %+v, want %+v", got, u)
	}

	if _, err := s.GetUserByUsername(ctx, "alice"); err != nil {
		t.Errorf("GetUserByUsername: %v", err)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("GetUser(999) err = %v, want ErrUserNotFound", err)
	}
	if _, err := s.CreateUser(ctx, "alice"); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestUpsertCachedItem(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertCachedItem(ctx, models.CatalogItem{
		Kind: models.KindMovie, RemoteID: 603, Title: "The Matrix",
		Year: intp(1999), Genres: []string{"Action"}, Language: "en",
		VoteAverage: 8.2, VoteCount: 20000, Runtime: intp(136),
		Providers: []string{"Netflix"},
	})
	if err != nil {
		t.Fatalf("UpsertCachedItem: %v", err)
	}
	if first.LocalID == 0 {
		t.Fatal("expected a local id")
	}

	// a list entry for the same item lacks runtime, providers and genres
	second, err := s.UpsertCachedItem(ctx, models.CatalogItem{
		Kind: models.KindMovie, RemoteID: 603, Title: "The Matrix",
		Year: intp(1999), Genres: []string{}, Language: "en",
		VoteAverage: 8.3, VoteCount: 20001,
	})
	if err != nil {
		t.Fatalf("second UpsertCachedItem: %v", err)
	}
	if second.LocalID != first.LocalID {
		t.Errorf("local id changed on upsert: %d -> %d", first.LocalID, second.LocalID)
	}

	got, err := s.GetCachedItemByLocalID(ctx, first.LocalID)
	if err != nil || got == nil {
		t.Fatalf("GetCachedItemByLocalID: %v, %v", got, err)
	}
	if got.VoteAverage != 8.3 {
		t.Errorf("vote_average = %v, want refreshed 8.3", got.VoteAverage)
	}
	if got.Runtime == nil || *got.Runtime != 136 {
		t.Errorf("runtime = %v, want kept 136", got.Runtime)
	}
	if len(got.Providers) != 1 || got.Providers[0] != "Netflix" {
		t.Errorf("providers = %v, want kept [Netflix]", got.Providers)
	}
	if len(got.Genres) != 1 || got.Genres[0] != "Action" {
		t.Errorf("genres = %v, want kept [Action]", got.Genres)
	}

	// same remote id, other kind, is a different item
	tv, err := s.UpsertCachedItem(ctx, models.CatalogItem{Kind: models.KindTV, RemoteID: 603, Title: "Show"})
	if err != nil {
		t.Fatalf("tv UpsertCachedItem: %v", err)
	}
	if tv.LocalID == first.LocalID {
		t.Error("movie and tv with the same remote id must not share a local id")
	}
	if tv.Year != nil {
		t.Errorf("year = %v, want nil", *tv.Year)
	}

	byRemote, err := s.GetCachedItemByRemoteID(ctx, models.KindTV, 603)
	if err != nil || byRemote == nil || byRemote.LocalID != tv.LocalID {
		t.Errorf("GetCachedItemByRemoteID = %+v, %v", byRemote, err)
	}
	if byRemote != nil && byRemote.Providers != nil {
		t.Errorf("providers never fetched should be nil, got %v", byRemote.Providers)
	}
}

func TestGetCachedItem_Miss(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	item, err := s.GetCachedItemByLocalID(context.Background(), 42)
	if err != nil || item != nil {
		t.Errorf("expected nil, nil on miss, got %+v, %v", item, err)
	}
}

func TestRatings(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "bob")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	var ids []int
	for i, kind := range []models.Kind{models.KindMovie, models.KindMovie, models.KindMovie, models.KindTV} {
		item, err := s.UpsertCachedItem(ctx, models.CatalogItem{Kind: kind, RemoteID: 100 + i, Title: "t"})
		if err != nil {
			t.Fatalf("UpsertCachedItem: %v", err)
		}
		ids = append(ids, item.LocalID)
	}

	for _, r := range []struct{ item, score int }{
		{ids[0], 5},
		{ids[1], 2},
		{ids[3], 4},
		{ids[2], 4},
		{ids[0], 3}, // re-rate: latest write wins and becomes most recent
	} {
		if err := s.RecordRating(ctx, u.ID, r.item, r.score); err != nil {
			t.Fatalf("RecordRating: %v", err)
		}
	}

	rated, err := s.GetRatingsForUser(ctx, u.ID, models.KindMovie)
	if err != nil {
		t.Fatalf("GetRatingsForUser: %v", err)
	}
	if len(rated) != 3 {
		t.Fatalf("got %d movie ratings, want 3", len(rated))
	}

	wantOrder := []struct{ item, score int }{{ids[0], 3}, {ids[2], 4}, {ids[1], 2}}
	for i, w := range wantOrder {
		if rated[i].LocalItemID != w.item || rated[i].Score != w.score {
			t.Errorf("rated[%d] = item %d score %d, want item %d score %d",
				i, rated[i].LocalItemID, rated[i].Score, w.item, w.score)
		}
		if rated[i].Item.LocalID != w.item || rated[i].Item.Kind != models.KindMovie {
			t.Errorf("rated[%d] joined item = %+v", i, rated[i].Item)
		}
	}

	if err := s.RecordRating(ctx, u.ID, ids[0], 6); !errors.Is(err, models.ErrInvalidScore) {
		t.Errorf("score 6 err = %v, want ErrInvalidScore", err)
	}
	if err := s.RecordRating(ctx, u.ID, ids[0], 0); !errors.Is(err, models.ErrInvalidScore) {
		t.Errorf("score 0 err = %v, want ErrInvalidScore", err)
	}
}

func TestPreferences(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "carol")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	def, err := s.GetPreferences(ctx, u.ID, models.KindTV)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if def.Kind != models.KindTV || def.NeedsDetails() || len(def.Genres) != 0 || def.MinRating != nil {
		t.Errorf("expected permissive default, got %+v", def)
	}

	rating := 7.5
	want := models.Preferences{
		UserID:     u.ID,
		Kind:       models.KindMovie,
		Genres:     []string{"Drama", "Comedy"},
		Languages:  []string{"en"},
		YearMin:    intp(1990),
		RuntimeMax: intp(120),
		MinRating:  &rating,
		Providers:  []string{"Netflix"},
	}
	if err := s.SavePreferences(ctx, want); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got, err := s.GetPreferences(ctx, u.ID, models.KindMovie)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if len(got.Genres) != 2 || got.Genres[1] != "Comedy" || len(got.Languages) != 1 {
		t.Errorf("sets not round-tripped: %+v", got)
	}
	if got.YearMin == nil || *got.YearMin != 1990 || got.YearMax != nil {
		t.Errorf("year bounds = %v..%v", got.YearMin, got.YearMax)
	}
	if got.RuntimeMax == nil || *got.RuntimeMax != 120 || got.RuntimeMin != nil {
		t.Errorf("runtime bounds = %v..%v", got.RuntimeMin, got.RuntimeMax)
	}
	if got.MinRating == nil || *got.MinRating != 7.5 {
		t.Errorf("min rating = %v", got.MinRating)
	}
	if !got.NeedsDetails() {
		t.Error("runtime and providers set, NeedsDetails should be true")
	}

	// replace clears fields left unset
	if err := s.SavePreferences(ctx, models.Preferences{UserID: u.ID, Kind: models.KindMovie, Genres: []string{"Horror"}}); err != nil {
		t.Fatalf("SavePreferences replace: %v", err)
	}
	got, err = s.GetPreferences(ctx, u.ID, models.KindMovie)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if got.MinRating != nil || got.YearMin != nil || len(got.Providers) != 0 || len(got.Genres) != 1 {
		t.Errorf("replace did not clear: %+v", got)
	}
}

func TestPlaceholders_ByDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect database.Dialect
		want    []string
		notWant string
	}{
		{database.Postgres, []string{"$1", "$2"}, "?"},
		{database.SQLite, []string{"?"}, "$1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			s := NewSQLStore(nil, tt.dialect)

			query, args, err := s.ratingsQuery(7, models.KindTV).ToSql()
			if err != nil {
				t.Fatalf("ratingsQuery: %v", err)
			}
			if len(args) != 2 {
				t.Errorf("ratingsQuery args = %v, want 2", args)
			}
			for _, w := range tt.want {
				if !strings.Contains(query, w) {
					t.Errorf("ratingsQuery %q missing %q", query, w)
				}
			}
			if strings.Contains(query, tt.notWant) {
				t.Errorf("ratingsQuery %q should not contain %q", query, tt.notWant)
			}

			insert, args, err := s.recordRatingQuery(7, 3, 5).ToSql()
			if err != nil {
				t.Fatalf("recordRatingQuery: %v", err)
			}
			if len(args) != 4 {
				t.Errorf("recordRatingQuery args = %v, want 4", args)
			}
			if tt.dialect == database.Postgres && !strings.Contains(insert, "$4") {
				t.Errorf("recordRatingQuery %q missing $4", insert)
			}
			if strings.Contains(insert, tt.notWant) {
				t.Errorf("recordRatingQuery %q should not contain %q", insert, tt.notWant)
			}
		})
	}
}
