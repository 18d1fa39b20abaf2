package recommend

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"movie-discovery-recommender/internal/models"
)

// Catalog is the remote catalog contract. Every method reports a failed
// request as ok == false rather than an error.
type Catalog interface {
	FetchItemDetails(ctx context.Context, kind models.Kind, id int) (*models.CatalogItem, bool)
	FetchSimilarItems(ctx context.Context, kind models.Kind, id, page int) (*models.Page, bool)
	FetchPopular(ctx context.Context, kind models.Kind, page int) (*models.Page, bool)
	FetchProviders(ctx context.Context, kind models.Kind, id int) ([]string, bool)
}

// Pool is the merged, de-duplicated candidate list in source priority order.
type Pool struct {
	Items []models.CatalogItem
	// Succeeded and Failed count remote requests made for this pool.
	Succeeded int
	Failed    int
}

// Unreachable reports whether every remote request failed.
func (p Pool) Unreachable() bool {
	return p.Failed > 0 && p.Succeeded == 0
}

// Aggregator builds the candidate pool from similarity seeds and the
// popularity feed. It does no preference filtering.
type Aggregator struct {
	catalog          Catalog
	targetPoolSize   int
	maxFallbackPages int
}

// NewAggregator creates an Aggregator.
func NewAggregator(catalog Catalog, targetPoolSize, maxFallbackPages int) *Aggregator {
	return &Aggregator{
		catalog:          catalog,
		targetPoolSize:   targetPoolSize,
		maxFallbackPages: maxFallbackPages,
	}
}

// Aggregate fetches page 1 of similar items for each seed concurrently,
// then tops up from the popularity feed while the pool is below target.
// Similar pools come first in seed order, popular pages after in page order;
// the first occurrence of a remote id wins.
func (a *Aggregator) Aggregate(ctx context.Context, kind models.Kind, seeds []int) Pool {
	var (
		pool      Pool
		succeeded atomic.Int32
		failed    atomic.Int32
	)

	similar := make([][]models.CatalogItem, len(seeds))
	var g errgroup.Group
	for i, seed := range seeds {
		g.Go(func() error {
			page, ok := a.catalog.FetchSimilarItems(ctx, kind, seed, 1)
			if !ok {
				failed.Add(1)
				slog.Debug("skipping seed", "kind", kind, "seed", seed)
				return nil
			}
			succeeded.Add(1)
			similar[i] = page.Items
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	seen := make(map[int]struct{})
	add := func(items []models.CatalogItem) {
		for _, item := range items {
			if _, dup := seen[item.RemoteID]; dup {
				continue
			}
			seen[item.RemoteID] = struct{}{}
			pool.Items = append(pool.Items, item)
		}
	}
	for _, items := range similar {
		add(items)
	}

	// sequential: whether to fetch the next page depends on the running size
	for page := 1; page <= a.maxFallbackPages && len(pool.Items) < a.targetPoolSize; page++ {
		p, ok := a.catalog.FetchPopular(ctx, kind, page)
		if !ok {
			failed.Add(1)
			continue
		}
		succeeded.Add(1)
		add(p.Items)
		// a missing total_pages leaves the ceiling as the only bound
		if p.TotalPages > 0 && page >= p.TotalPages {
			break
		}
	}

	pool.Succeeded = int(succeeded.Load())
	pool.Failed = int(failed.Load())
	return pool
}
