package models

import "time"

// LikeThreshold is the lowest score that counts as a like.
const LikeThreshold = 4

// User is a registered user.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
}

// Rating is one user's score for one cached item. Latest write wins.
type Rating struct {
	UserID      int       `json:"user_id"`
	LocalItemID int       `json:"item_id"`
	Score       int       `json:"score"`
	RatedAt     time.Time `json:"rated_at"`
}

// Liked reports whether the score is at or above the like threshold.
func (r Rating) Liked() bool {
	return r.Score >= LikeThreshold
}

// RatedItem is a rating joined with the item it refers to.
type RatedItem struct {
	Rating
	Item CatalogItem `json:"item"`
}

// RateRequest is the request body for rating an item.
type RateRequest struct {
	TMDBID int `json:"tmdb_id" validate:"required,gt=0"`
	Score  int `json:"score" validate:"required,min=1,max=5"`
}

// ValidScore reports whether score is on the 1–5 scale.
func ValidScore(score int) bool {
	return score >= 1 && score <= 5
}
