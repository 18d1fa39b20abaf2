package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"movie-discovery-recommender/internal/metrics"
	"movie-discovery-recommender/internal/models"
)

// Store is the part of the interaction store the engine reads and refreshes.
type Store interface {
	RatingLister
	GetUser(ctx context.Context, id int) (*models.User, error)
	UpsertCachedItem(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error)
}

// Options tunes seed selection, aggregation and hydration.
type Options struct {
	SeedLimit        int
	TargetPoolSize   int
	MaxFallbackPages int
	HydrateWorkers   int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		SeedLimit:        5,
		TargetPoolSize:   20,
		MaxFallbackPages: 5,
		HydrateWorkers:   4,
	}
}

// Engine produces recommendations for one kind at a time.
type Engine struct {
	store   Store
	catalog Catalog
	agg     *Aggregator
	opts    Options
}

// NewEngine creates an Engine. Zero option fields take their defaults.
func NewEngine(store Store, catalog Catalog, opts Options) *Engine {
	def := DefaultOptions()
	if opts.SeedLimit <= 0 {
		opts.SeedLimit = def.SeedLimit
	}
	if opts.TargetPoolSize <= 0 {
		opts.TargetPoolSize = def.TargetPoolSize
	}
	if opts.MaxFallbackPages <= 0 {
		opts.MaxFallbackPages = def.MaxFallbackPages
	}
	if opts.HydrateWorkers <= 0 {
		opts.HydrateWorkers = def.HydrateWorkers
	}
	return &Engine{
		store:   store,
		catalog: catalog,
		agg:     NewAggregator(catalog, opts.TargetPoolSize, opts.MaxFallbackPages),
		opts:    opts,
	}
}

// Recommend returns the not-excluded candidates that match prefs, in
// aggregator order. A remote outage yields an empty result, not an error;
// the only error is an unknown user or a failing store.
func (e *Engine) Recommend(ctx context.Context, userID int, kind models.Kind, prefs models.Preferences, exclusions *ExclusionSet) ([]models.CatalogItem, error) {
	metrics.RecommendRequests.WithLabelValues(string(kind)).Inc()

	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("recommend for user %d: %w", userID, err)
	}

	rated, err := e.store.GetRatingsForUser(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("recommend for user %d: %w", userID, err)
	}
	seeds := SelectSeeds(rated, e.opts.SeedLimit)

	pool := e.agg.Aggregate(ctx, kind, seeds)
	metrics.CandidatePoolSize.Observe(float64(len(pool.Items)))

	candidates := pool.Items
	if prefs.NeedsDetails() {
		candidates = e.hydrate(ctx, kind, candidates, prefs, exclusions)
	}

	out := make([]models.CatalogItem, 0, len(candidates))
	for _, item := range candidates {
		if !Matches(item, prefs) {
			continue
		}
		if exclusions.Contains(item.RemoteID) {
			continue
		}
		out = append(out, item)
	}

	switch {
	case pool.Unreachable():
		slog.Warn("remote catalog unreachable, no recommendations",
			"user_id", userID, "kind", kind, "failed_requests", pool.Failed)
		metrics.RecommendEmpty.WithLabelValues(string(kind), "outage").Inc()
	case len(out) == 0:
		metrics.RecommendEmpty.WithLabelValues(string(kind), "filtered").Inc()
	}

	slog.Debug("recommendations computed",
		"user_id", userID,
		"kind", kind,
		"seeds", len(seeds),
		"pool", len(pool.Items),
		"delivered", len(out),
	)
	return out, nil
}

// SelectSeeds returns the remote ids of up to limit liked items, most
// recently rated first. Disliked items never seed.
func SelectSeeds(rated []models.RatedItem, limit int) []int {
	liked := make([]models.RatedItem, 0, len(rated))
	for _, r := range rated {
		if r.Liked() {
			liked = append(liked, r)
		}
	}
	sort.SliceStable(liked, func(i, j int) bool {
		if !liked[i].RatedAt.Equal(liked[j].RatedAt) {
			return liked[i].RatedAt.After(liked[j].RatedAt)
		}
		return liked[i].LocalItemID > liked[j].LocalItemID
	})

	if len(liked) > limit {
		liked = liked[:limit]
	}
	seeds := make([]int, 0, len(liked))
	for _, r := range liked {
		seeds = append(seeds, r.Item.RemoteID)
	}
	return seeds
}

// hydrate refreshes runtime, providers and votes for candidates that could
// still be delivered. A failed fetch leaves the field absent so the predicate
// rejects the item. Refreshed records are written back to the item cache.
func (e *Engine) hydrate(ctx context.Context, kind models.Kind, pool []models.CatalogItem, prefs models.Preferences, exclusions *ExclusionSet) []models.CatalogItem {
	out := make([]models.CatalogItem, len(pool))
	copy(out, pool)

	var g errgroup.Group
	g.SetLimit(e.opts.HydrateWorkers)
	for i := range out {
		item := out[i]
		if exclusions.Contains(item.RemoteID) || !matchesListed(item, prefs) {
			continue
		}
		g.Go(func() error {
			refreshed := item
			details, ok := e.catalog.FetchItemDetails(ctx, kind, item.RemoteID)
			if ok {
				refreshed = *details
				if len(refreshed.Genres) == 0 {
					refreshed.Genres = item.Genres
				}
			} else if prefs.MinRating != nil {
				// list votes may be cached, never filter on them
				refreshed.VoteAverage, refreshed.VoteCount = 0, 0
			}
			if len(prefs.Providers) > 0 {
				if providers, ok := e.catalog.FetchProviders(ctx, kind, item.RemoteID); ok {
					refreshed.Providers = providers
				} else {
					refreshed.Providers = nil
				}
			}

			if ok {
				if cached, err := e.store.UpsertCachedItem(ctx, refreshed); err != nil {
					slog.Warn("failed to cache item", "kind", kind, "tmdb_id", item.RemoteID, "error", err)
				} else {
					refreshed.LocalID = cached.LocalID
				}
			}
			out[i] = refreshed
			return nil
		})
	}
	_ = g.Wait()
	return out
}
