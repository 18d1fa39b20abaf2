package recommend

import (
	"strings"

	"movie-discovery-recommender/internal/models"
)

// Matches reports whether item satisfies every active constraint in prefs.
// A constraint the item cannot be checked against (no year, no runtime,
// providers never fetched, no votes) fails. No active constraints passes.
func Matches(item models.CatalogItem, prefs models.Preferences) bool {
	return matchesListed(item, prefs) && matchesDetailed(item, prefs)
}

// matchesListed checks the constraints that list entries carry enough data for.
func matchesListed(item models.CatalogItem, prefs models.Preferences) bool {
	if len(prefs.Genres) > 0 && !intersectsFold(item.Genres, prefs.Genres) {
		return false
	}
	if len(prefs.Languages) > 0 && !containsFold(prefs.Languages, item.Language) {
		return false
	}
	if !inRange(item.Year, prefs.YearMin, prefs.YearMax) {
		return false
	}
	return true
}

// matchesDetailed checks the constraints that need a detail fetch: runtime,
// providers, and the rating, whose votes must come from a fresh fetch.
func matchesDetailed(item models.CatalogItem, prefs models.Preferences) bool {
	if prefs.MinRating != nil {
		if item.VoteCount <= 0 || item.VoteAverage < *prefs.MinRating {
			return false
		}
	}
	if !inRange(item.Runtime, prefs.RuntimeMin, prefs.RuntimeMax) {
		return false
	}
	if len(prefs.Providers) > 0 {
		if item.Providers == nil || !intersectsFold(item.Providers, prefs.Providers) {
			return false
		}
	}
	return true
}

// inRange checks v against an inclusive range where either bound may be nil.
func inRange(v, lo, hi *int) bool {
	if lo == nil && hi == nil {
		return true
	}
	if v == nil {
		return false
	}
	if lo != nil && *v < *lo {
		return false
	}
	if hi != nil && *v > *hi {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

func intersectsFold(values, set []string) bool {
	for _, v := range values {
		if containsFold(set, strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}
