package recommend

import (
	"testing"

	"movie-discovery-recommender/internal/models"
)

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }

func TestMatches(t *testing.T) {
	t.Parallel()

	base := models.CatalogItem{
		RemoteID:    1,
		Kind:        models.KindMovie,
		Title:       "Base",
		Year:        intp(2005),
		Genres:      []string{"Drama", "Crime"},
		Language:    "en",
		VoteAverage: 7.8,
		VoteCount:   1200,
		Runtime:     intp(118),
		Providers:   []string{"Netflix"},
	}
	with := func(mod func(*models.CatalogItem)) models.CatalogItem {
		item := base
		mod(&item)
		return item
	}

	tests := []struct {
		name  string
		item  models.CatalogItem
		prefs models.Preferences
		want  bool
	}{
		{"no preferences passes", base, models.Preferences{}, true},
		{"no preferences passes bare item", models.CatalogItem{RemoteID: 2}, models.Preferences{}, true},

		{"genre intersects", base, models.Preferences{Genres: []string{"Comedy", "Crime"}}, true},
		{"genre case-insensitive", base, models.Preferences{Genres: []string{"drama"}}, true},
		{"genre disjoint", base, models.Preferences{Genres: []string{"Horror"}}, false},
		{"genre none on item", with(func(i *models.CatalogItem) { i.Genres = nil }), models.Preferences{Genres: []string{"Drama"}}, false},

		{"language member", base, models.Preferences{Languages: []string{"fr", "EN"}}, true},
		{"language not member", base, models.Preferences{Languages: []string{"fr"}}, false},
		{"language unknown", with(func(i *models.CatalogItem) { i.Language = "" }), models.Preferences{Languages: []string{"en"}}, false},

		{"year inside", base, models.Preferences{YearMin: intp(2000), YearMax: intp(2010)}, true},
		{"year inclusive bounds", base, models.Preferences{YearMin: intp(2005), YearMax: intp(2005)}, true},
		{"year below", base, models.Preferences{YearMin: intp(2006)}, false},
		{"year above open min", base, models.Preferences{YearMax: intp(2004)}, false},
		{"year missing fails active range", with(func(i *models.CatalogItem) { i.Year = nil }), models.Preferences{YearMin: intp(1900)}, false},
		{"year missing passes inactive range", with(func(i *models.CatalogItem) { i.Year = nil }), models.Preferences{Genres: []string{"Drama"}}, true},

		{"runtime inside", base, models.Preferences{RuntimeMin: intp(90), RuntimeMax: intp(120)}, true},
		{"runtime too long", base, models.Preferences{RuntimeMax: intp(100)}, false},
		{"runtime missing fails", with(func(i *models.CatalogItem) { i.Runtime = nil }), models.Preferences{RuntimeMin: intp(1)}, false},

		{"rating at threshold", base, models.Preferences{MinRating: floatp(7.8)}, true},
		{"rating below", base, models.Preferences{MinRating: floatp(8)}, false},
		{"rating zero votes fails", with(func(i *models.CatalogItem) { i.VoteCount = 0 }), models.Preferences{MinRating: floatp(1)}, false},
		{"rating zero threshold zero votes fails", with(func(i *models.CatalogItem) { i.VoteCount = 0; i.VoteAverage = 0 }), models.Preferences{MinRating: floatp(0)}, false},

		{"provider intersects", base, models.Preferences{Providers: []string{"netflix", "Hulu"}}, true},
		{"provider disjoint", base, models.Preferences{Providers: []string{"Hulu"}}, false},
		{"provider never fetched fails", with(func(i *models.CatalogItem) { i.Providers = nil }), models.Preferences{Providers: []string{"Netflix"}}, false},
		{"provider fetched empty fails", with(func(i *models.CatalogItem) { i.Providers = []string{} }), models.Preferences{Providers: []string{"Netflix"}}, false},

		{"all active all pass", base, models.Preferences{
			Genres: []string{"Crime"}, Languages: []string{"en"},
			YearMin: intp(2000), YearMax: intp(2010),
			RuntimeMin: intp(100), RuntimeMax: intp(130),
			MinRating: floatp(7), Providers: []string{"Netflix"},
		}, true},
		{"all active one fails", base, models.Preferences{
			Genres: []string{"Crime"}, Languages: []string{"en"},
			YearMin: intp(2000), MinRating: floatp(7), Providers: []string{"Hulu"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Matches(tt.item, tt.prefs); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
