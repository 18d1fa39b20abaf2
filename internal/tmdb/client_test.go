package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"movie-discovery-recommender/internal/config"
	"movie-discovery-recommender/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.TMDBConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Region:  "US",
	}, nil)
}

func TestFetchPopular_ResolvesGenres(t *testing.T) {
	t.Parallel()

	var genreCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		genreCalls.Add(1)
		_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"},{"id":35,"name":"Comedy"}]}`))
	})
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("expected page=2, got %s", r.URL.Query().Get("page"))
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":9,"results":[
			{"id":1,"title":"One","release_date":"1999-03-31","genre_ids":[18,99],"original_language":"en","vote_average":7.5,"vote_count":100},
			{"id":2,"title":"Two","release_date":"","genre_ids":[35],"original_language":"fr","vote_average":0,"vote_count":0}
		]}`))
	})
	c := newTestClient(t, mux)

	page, ok := c.FetchPopular(context.Background(), models.KindMovie, 2)
	if !ok {
		t.Fatal("FetchPopular returned not ok")
	}
	if page.TotalPages != 9 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	first := page.Items[0]
	if first.RemoteID != 1 || first.Title != "One" || first.Year == nil || *first.Year != 1999 {
		t.Errorf("unexpected first item: %+v", first)
	}
	if len(first.Genres) != 1 || first.Genres[0] != "Drama" {
		t.Errorf("genres = %v, want [Drama] (unknown id dropped)", first.Genres)
	}
	if first.Runtime != nil || first.Providers != nil {
		t.Errorf("list entries must not carry runtime/providers: %+v", first)
	}
	if page.Items[1].Year != nil {
		t.Errorf("empty release date should give nil year, got %d", *page.Items[1].Year)
	}

	if _, ok := c.FetchPopular(context.Background(), models.KindMovie, 2); !ok {
		t.Fatal("second FetchPopular returned not ok")
	}
	if n := genreCalls.Load(); n != 1 {
		t.Errorf("genre list fetched %d times, want 1", n)
	}
}

func TestFetchItemDetails_TV(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/tv/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"name":"Show","first_air_date":"2011-04-17",
			"genres":[{"id":10765,"name":"Sci-Fi & Fantasy"}],"original_language":"en",
			"vote_average":8.4,"vote_count":2000,"episode_run_time":[0,55,60]}`))
	})
	c := newTestClient(t, mux)

	item, ok := c.FetchItemDetails(context.Background(), models.KindTV, 42)
	if !ok {
		t.Fatal("FetchItemDetails returned not ok")
	}
	if item.Title != "Show" || item.Kind != models.KindTV {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Year == nil || *item.Year != 2011 {
		t.Errorf("year = %v, want 2011", item.Year)
	}
	if item.Runtime == nil || *item.Runtime != 55 {
		t.Errorf("runtime = %v, want 55", item.Runtime)
	}
	if len(item.Genres) != 1 || item.Genres[0] != "Sci-Fi & Fantasy" {
		t.Errorf("genres = %v", item.Genres)
	}
}

func TestFetch_FailuresAreAbsent(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/movie/7", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/movie/7/similar", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	if item, ok := c.FetchItemDetails(ctx, models.KindMovie, 7); ok || item != nil {
		t.Errorf("expected absent detail on 404, got %+v", item)
	}
	if page, ok := c.FetchSimilarItems(ctx, models.KindMovie, 7, 1); ok || page != nil {
		t.Errorf("expected absent similar page on 500, got %+v", page)
	}
	if page, ok := c.FetchPopular(ctx, models.KindMovie, 1); ok || page != nil {
		t.Errorf("expected absent popular page on malformed body, got %+v", page)
	}
	if _, ok := c.FetchPopular(ctx, models.Kind("book"), 1); ok {
		t.Error("expected unknown kind to be absent")
	}
}

func TestFetch_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(config.TMDBConfig{APIKey: "k", BaseURL: url}, nil)
	if _, ok := c.FetchPopular(context.Background(), models.KindMovie, 1); ok {
		t.Error("expected absent page when server is unreachable")
	}
	if names := c.ResolveGenreNames(context.Background(), []int{18}, models.KindMovie); len(names) != 0 {
		t.Errorf("expected no genre names, got %v", names)
	}
}

func TestFetchProviders_Region(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/movie/5/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"results":{
			"US":{"flatrate":[{"provider_id":8,"provider_name":"Netflix"},{"provider_id":337,"provider_name":"Disney Plus"}]},
			"GB":{"flatrate":[{"provider_id":9,"provider_name":"Amazon Prime Video"}]}
		}}`))
	})
	mux.HandleFunc("/movie/6/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":6,"results":{"GB":{"flatrate":[]}}}`))
	})
	c := newTestClient(t, mux)

	names, ok := c.FetchProviders(context.Background(), models.KindMovie, 5)
	if !ok {
		t.Fatal("FetchProviders returned not ok")
	}
	if len(names) != 2 || names[0] != "Netflix" || names[1] != "Disney Plus" {
		t.Errorf("providers = %v", names)
	}

	names, ok = c.FetchProviders(context.Background(), models.KindMovie, 6)
	if !ok || names == nil || len(names) != 0 {
		t.Errorf("expected fetched-but-empty providers, got %v ok=%v", names, ok)
	}
}

func TestGenreNames_Sorted(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/genre/tv/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres":[{"id":2,"name":"Drama"},{"id":1,"name":"Animation"}]}`))
	})
	c := newTestClient(t, mux)

	got := c.GenreNames(context.Background(), models.KindTV)
	if len(got) != 2 || got[0] != "Animation" || got[1] != "Drama" {
		t.Errorf("GenreNames() = %v", got)
	}
}

func TestParseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  int
		isNil bool
	}{
		{"2020-01-02", 2020, false},
		{"1999", 1999, false},
		{"", 0, true},
		{"19", 0, true},
		{"abcd-01-01", 0, true},
	}
	for _, tt := range tests {
		got := parseYear(tt.in)
		if tt.isNil {
			if got != nil {
				t.Errorf("parseYear(%q) = %d, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("parseYear(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}
