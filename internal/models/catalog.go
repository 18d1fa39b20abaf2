package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags which catalog an item belongs to.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind accepts "movie", "tv" and the common aliases "movies", "show", "shows".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, nil
	case "tv", "show", "shows":
		return KindTV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// CatalogItem is a movie or show, cached locally from TMDB.
// Year and Runtime are nil when the remote record lacks them.
// Providers is nil when provider data was never fetched.
type CatalogItem struct {
	LocalID     int       `json:"id"`
	RemoteID    int       `json:"tmdb_id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Year        *int      `json:"year"`
	Genres      []string  `json:"genres"`
	Language    string    `json:"language"`
	VoteAverage float64   `json:"vote_average"`
	VoteCount   int       `json:"vote_count"`
	Runtime     *int      `json:"runtime"`
	Providers   []string  `json:"providers"`
	Overview    string    `json:"overview,omitempty"`
	PosterPath  string    `json:"poster_path,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PosterURL returns the w500 poster URL, or "" when the item has no poster.
func (c CatalogItem) PosterURL() string {
	if c.PosterPath == "" {
		return ""
	}
	return TMDBImageBaseW500 + c.PosterPath
}

// Page is one page of a paginated TMDB collection.
type Page struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Items      []CatalogItem `json:"items"`
}

const TMDBImageBaseW500 = "https://image.tmdb.org/t/p/w500"
