package models

// NoRecommendationsMessage is reported alongside an empty result.
const NoRecommendationsMessage = "no recommendations available"

// RecommendedItem is a catalog item as delivered to the caller.
type RecommendedItem struct {
	CatalogItem
	PosterURL string `json:"poster_url,omitempty"`
}

// RecommendationResponse is the API response for recommendations.
type RecommendationResponse struct {
	UserID          int               `json:"user_id"`
	Kind            Kind              `json:"kind"`
	Count           int               `json:"count"`
	Recommendations []RecommendedItem `json:"recommendations"`
	Message         string            `json:"message,omitempty"`
}

// NewRecommendationResponse wraps items; an empty result carries
// NoRecommendationsMessage.
func NewRecommendationResponse(userID int, kind Kind, items []CatalogItem) RecommendationResponse {
	resp := RecommendationResponse{
		UserID:          userID,
		Kind:            kind,
		Count:           len(items),
		Recommendations: make([]RecommendedItem, 0, len(items)),
	}
	for _, item := range items {
		resp.Recommendations = append(resp.Recommendations, RecommendedItem{
			CatalogItem: item,
			PosterURL:   item.PosterURL(),
		})
	}
	if len(items) == 0 {
		resp.Message = NoRecommendationsMessage
	}
	return resp
}
