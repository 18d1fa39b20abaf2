package tmdb

import (
	"context"
	"log/slog"
	"sort"

	"movie-discovery-recommender/internal/models"
)

// The methods below are the catalog contract the recommender consumes:
// they never return errors, a failed request is reported as ok == false.

// FetchItemDetails returns the full record of one item.
func (c *Client) FetchItemDetails(ctx context.Context, kind models.Kind, id int) (*models.CatalogItem, bool) {
	spec, ok := specFor(kind)
	if !ok {
		return nil, false
	}
	raw, err := c.getDetail(ctx, kind, id)
	if err != nil {
		slog.Warn("tmdb detail fetch failed", "kind", kind, "tmdb_id", id, "error", err)
		return nil, false
	}
	item := toItem(kind, spec, raw, nil)
	return &item, true
}

// FetchSimilarItems returns one page of items similar to id.
func (c *Client) FetchSimilarItems(ctx context.Context, kind models.Kind, id, page int) (*models.Page, bool) {
	raw, err := c.getSimilar(ctx, kind, id, page)
	if err != nil {
		slog.Warn("tmdb similar fetch failed", "kind", kind, "tmdb_id", id, "page", page, "error", err)
		return nil, false
	}
	return c.toPage(ctx, kind, raw), true
}

// FetchPopular returns one page (1-indexed) of the popularity feed.
func (c *Client) FetchPopular(ctx context.Context, kind models.Kind, page int) (*models.Page, bool) {
	raw, err := c.getPopular(ctx, kind, page)
	if err != nil {
		slog.Warn("tmdb popular fetch failed", "kind", kind, "page", page, "error", err)
		return nil, false
	}
	return c.toPage(ctx, kind, raw), true
}

// FetchProviders returns the flat-rate streaming providers for the configured region.
func (c *Client) FetchProviders(ctx context.Context, kind models.Kind, id int) ([]string, bool) {
	names, err := c.getWatchProviders(ctx, kind, id)
	if err != nil {
		slog.Warn("tmdb providers fetch failed", "kind", kind, "tmdb_id", id, "error", err)
		return nil, false
	}
	return names, true
}

// ResolveGenreNames maps genre ids to names. The taxonomy is fetched once per
// kind and kept for the life of the process; ids it does not know are omitted.
func (c *Client) ResolveGenreNames(ctx context.Context, ids []int, kind models.Kind) map[int]string {
	lookup := c.genreLookup(ctx, kind)
	out := make(map[int]string, len(ids))
	for _, id := range ids {
		if name, ok := lookup[id]; ok {
			out[id] = name
		}
	}
	return out
}

// GenreNames lists every known genre name for a kind, sorted.
func (c *Client) GenreNames(ctx context.Context, kind models.Kind) []string {
	lookup := c.genreLookup(ctx, kind)
	names := make([]string, 0, len(lookup))
	for _, name := range lookup {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Client) genreLookup(ctx context.Context, kind models.Kind) map[int]string {
	c.genreMu.Lock()
	defer c.genreMu.Unlock()

	if lookup, ok := c.genres[kind]; ok {
		return lookup
	}

	genres, err := c.getGenres(ctx, kind)
	if err != nil {
		// not cached, so the next call retries
		slog.Warn("tmdb genre fetch failed", "kind", kind, "error", err)
		return map[int]string{}
	}

	lookup := make(map[int]string, len(genres))
	for _, g := range genres {
		lookup[g.ID] = g.Name
	}
	c.genres[kind] = lookup
	slog.Debug("cached genre taxonomy", "kind", kind, "count", len(lookup))
	return lookup
}

func (c *Client) toPage(ctx context.Context, kind models.Kind, raw *listResponse) *models.Page {
	spec, _ := specFor(kind)

	var ids []int
	for i := range raw.Results {
		ids = append(ids, raw.Results[i].GenreIDs...)
	}
	names := c.ResolveGenreNames(ctx, ids, kind)

	page := &models.Page{
		Page:       raw.Page,
		TotalPages: raw.TotalPages,
		Items:      make([]models.CatalogItem, 0, len(raw.Results)),
	}
	for i := range raw.Results {
		page.Items = append(page.Items, toItem(kind, spec, &raw.Results[i], names))
	}
	return page
}
