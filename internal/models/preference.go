package models

import "time"

// Preferences are a user's declared constraints for one kind.
// A nil or empty field imposes no constraint.
type Preferences struct {
	UserID     int       `json:"user_id"`
	Kind       Kind      `json:"kind"`
	Genres     []string  `json:"genres"`
	Languages  []string  `json:"languages"`
	YearMin    *int      `json:"year_min"`
	YearMax    *int      `json:"year_max"`
	RuntimeMin *int      `json:"runtime_min"`
	RuntimeMax *int      `json:"runtime_max"`
	MinRating  *float64  `json:"min_rating"`
	Providers  []string  `json:"providers"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NeedsDetails reports whether a constraint depends on fields that only
// a detail fetch carries (runtime, streaming providers) or on vote data,
// which list pages may serve from cache.
func (p Preferences) NeedsDetails() bool {
	return p.RuntimeMin != nil || p.RuntimeMax != nil || len(p.Providers) > 0 || p.MinRating != nil
}

// SetPreferenceRequest is the request body for replacing preferences.
type SetPreferenceRequest struct {
	Genres     []string `json:"genres"`
	Languages  []string `json:"languages" validate:"dive,len=2|eq=Any|eq=any"`
	YearMin    *int     `json:"year_min" validate:"omitempty,gte=1870,lte=2100"`
	YearMax    *int     `json:"year_max" validate:"omitempty,gte=1870,lte=2100"`
	RuntimeMin *int     `json:"runtime_min" validate:"omitempty,gte=0"`
	RuntimeMax *int     `json:"runtime_max" validate:"omitempty,gte=0"`
	MinRating  *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=10"`
	Providers  []string `json:"providers"`
}
