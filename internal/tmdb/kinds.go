package tmdb

import (
	"strconv"
	"time"

	"movie-discovery-recommender/internal/models"
)

// kindSpec is the per-kind field accessor set: movies and shows share one
// pipeline and differ only in where TMDB puts title, date and duration.
type kindSpec struct {
	path     string
	title    func(r *tmdbItem) string
	date     func(r *tmdbItem) string
	duration func(r *tmdbItem) *int
}

var kinds = map[models.Kind]kindSpec{
	models.KindMovie: {
		path:  "movie",
		title: func(r *tmdbItem) string { return r.Title },
		date:  func(r *tmdbItem) string { return r.ReleaseDate },
		duration: func(r *tmdbItem) *int {
			if r.Runtime == nil || *r.Runtime <= 0 {
				return nil
			}
			v := *r.Runtime
			return &v
		},
	},
	models.KindTV: {
		path:  "tv",
		title: func(r *tmdbItem) string { return r.Name },
		date:  func(r *tmdbItem) string { return r.FirstAirDate },
		duration: func(r *tmdbItem) *int {
			// first listed episode length is the representative one
			for _, d := range r.EpisodeRunTime {
				if d > 0 {
					v := d
					return &v
				}
			}
			return nil
		},
	},
}

func specFor(kind models.Kind) (kindSpec, bool) {
	s, ok := kinds[kind]
	return s, ok
}

// ---- TMDB Response Types (internal, not exposed to consumers) ----

// tmdbItem covers both list entries and detail records for movies and shows.
type tmdbItem struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	GenreIDs         []int   `json:"genre_ids"`
	Genres           []Genre `json:"genres"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	PosterPath       string  `json:"poster_path"`
	Runtime          *int    `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
}

// listResponse is a paginated TMDB collection (popular, similar).
type listResponse struct {
	Page         int        `json:"page"`
	Results      []tmdbItem `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

// Genre is a genre from TMDB.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

type providerEntry struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type providersResponse struct {
	ID      int `json:"id"`
	Results map[string]struct {
		Link     string          `json:"link"`
		Flatrate []providerEntry `json:"flatrate"`
	} `json:"results"`
}

// toItem converts a raw record into a CatalogItem. Genre names come from
// the record itself (details) or from the resolved lookup (list entries).
func toItem(kind models.Kind, spec kindSpec, r *tmdbItem, genreNames map[int]string) models.CatalogItem {
	item := models.CatalogItem{
		RemoteID:    r.ID,
		Kind:        kind,
		Title:       spec.title(r),
		Year:        parseYear(spec.date(r)),
		Language:    r.OriginalLanguage,
		VoteAverage: r.VoteAverage,
		VoteCount:   r.VoteCount,
		Runtime:     spec.duration(r),
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
		UpdatedAt:   time.Now().UTC(),
	}

	if len(r.Genres) > 0 {
		item.Genres = make([]string, 0, len(r.Genres))
		for _, g := range r.Genres {
			item.Genres = append(item.Genres, g.Name)
		}
	} else {
		item.Genres = make([]string, 0, len(r.GenreIDs))
		for _, id := range r.GenreIDs {
			if name, ok := genreNames[id]; ok {
				item.Genres = append(item.Genres, name)
			}
		}
	}
	return item
}

// parseYear extracts the year of a "YYYY-MM-DD" date; nil when absent or malformed.
func parseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return nil
	}
	return &y
}
