package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"movie-discovery-recommender/internal/config"
	"movie-discovery-recommender/internal/metrics"
	"movie-discovery-recommender/internal/models"
)

const (
	breakerName   = "tmdb-api"
	genreCacheTTL = 24 * time.Hour
)

var (
	// ErrNotFound is returned for a 404 from TMDB.
	ErrNotFound = errors.New("tmdb: not found")
	// ErrStatus wraps any other non-200 status.
	ErrStatus = errors.New("tmdb: unexpected status")
)

// Client is the TMDB API client. It is safe for concurrent use.
type Client struct {
	apiKey   string
	baseURL  string
	region   string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	redis    *redis.Client
	cacheTTL time.Duration

	genreMu sync.Mutex
	genres  map[models.Kind]map[int]string
}

// NewClient creates a new TMDB API client. rdb may be nil.
func NewClient(cfg config.TMDBConfig, rdb *redis.Client) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = int(math.Ceil(cfg.RateLimit))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		region:   cfg.Region,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  newBreaker(),
		redis:    rdb,
		cacheTTL: cfg.CacheTTL,
		genres:   make(map[models.Kind]map[int]string),
	}
}

// newBreaker opens after 60% failures over at least 10 requests in a minute
// and probes again after 30 seconds. A 404 is an answer, not a failure.
func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// getDetail fetches the detail record of one movie or show.
func (c *Client) getDetail(ctx context.Context, kind models.Kind, id int) (*tmdbItem, error) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, models.ErrInvalidKind
	}
	var out tmdbItem
	path := fmt.Sprintf("/%s/%d", spec.path, id)
	if err := c.getJSON(ctx, "detail", path, nil, 0, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getSimilar fetches one page of items similar to id.
func (c *Client) getSimilar(ctx context.Context, kind models.Kind, id, page int) (*listResponse, error) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, models.ErrInvalidKind
	}
	var out listResponse
	path := fmt.Sprintf("/%s/%d/similar", spec.path, id)
	q := url.Values{"page": {fmt.Sprint(page)}}
	if err := c.getJSON(ctx, "similar", path, q, c.cacheTTL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getPopular fetches one page of the popularity feed.
func (c *Client) getPopular(ctx context.Context, kind models.Kind, page int) (*listResponse, error) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, models.ErrInvalidKind
	}
	var out listResponse
	path := fmt.Sprintf("/%s/popular", spec.path)
	q := url.Values{"page": {fmt.Sprint(page)}}
	if err := c.getJSON(ctx, "popular", path, q, c.cacheTTL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getGenres fetches the genre taxonomy for a kind.
func (c *Client) getGenres(ctx context.Context, kind models.Kind) ([]Genre, error) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, models.ErrInvalidKind
	}
	var out genreListResponse
	path := fmt.Sprintf("/genre/%s/list", spec.path)
	if err := c.getJSON(ctx, "genres", path, nil, genreCacheTTL, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// getWatchProviders fetches flat-rate streaming providers in the configured region.
func (c *Client) getWatchProviders(ctx context.Context, kind models.Kind, id int) ([]string, error) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, models.ErrInvalidKind
	}
	var out providersResponse
	path := fmt.Sprintf("/%s/%d/watch/providers", spec.path, id)
	if err := c.getJSON(ctx, "providers", path, nil, 0, &out); err != nil {
		return nil, err
	}

	names := make([]string, 0)
	if region, ok := out.Results[c.region]; ok {
		for _, p := range region.Flatrate {
			names = append(names, p.ProviderName)
		}
	}
	return names, nil
}

// getJSON fetches path and decodes the body into out. A positive ttl enables
// the Redis cache for this path.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, ttl time.Duration, out any) error {
	cacheKey := "tmdb:" + path
	if len(q) > 0 {
		cacheKey += "?" + q.Encode()
	}

	if ttl > 0 {
		if cached, err := c.getFromCache(ctx, cacheKey); err == nil {
			if json.Unmarshal(cached, out) == nil {
				metrics.TMDBRequests.WithLabelValues(endpoint, "cache_hit").Inc()
				return nil
			}
		}
	}

	body, err := c.doGet(ctx, path, q)
	if err != nil {
		metrics.TMDBRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		return err
	}
	metrics.TMDBRequests.WithLabelValues(endpoint, "ok").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	if ttl > 0 {
		c.setCache(ctx, cacheKey, body, ttl)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}

func (c *Client) doGet(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("api_key", c.apiKey)
	target := c.baseURL + path + "?" + params.Encode()

	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}

		slog.Debug("fetching TMDB", "path", path)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		default:
			return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, truncate(string(body), 200))
		}
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ---- Redis Helpers ----

func (c *Client) getFromCache(ctx context.Context, key string) ([]byte, error) {
	if c.redis == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.redis.Get(ctx, key).Bytes()
}

func (c *Client) setCache(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
