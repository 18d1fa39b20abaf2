package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-recommender/internal/models"
	"movie-discovery-recommender/internal/service"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type RecommendationHandler struct {
	svc *service.RecommendationService
}

func NewRecommendationHandler(svc *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

// GetRecommendations godoc
// GET /api/v1/users/:id/recommendations/:kind
func (h *RecommendationHandler) GetRecommendations(c fiber.Ctx) error {
	userID := fiber.Params[int](c, "id")
	if userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	limit := fiber.Query(c, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	items, err := h.svc.Recommend(c.Context(), userID, kind, limit)
	if err != nil {
		return respondError(c, err, "failed to generate recommendations")
	}

	return c.JSON(models.NewRecommendationResponse(userID, kind, items))
}

// Rate godoc
// POST /api/v1/users/:id/ratings/:kind
func (h *RecommendationHandler) Rate(c fiber.Ctx) error {
	userID := fiber.Params[int](c, "id")
	if userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var req models.RateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := validateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	rated, err := h.svc.Rate(c.Context(), userID, kind, req.TMDBID, req.Score)
	if err != nil {
		return respondError(c, err, "failed to record rating")
	}

	slog.Debug("rating accepted", "user_id", userID, "tmdb_id", req.TMDBID)
	return c.Status(fiber.StatusCreated).JSON(rated)
}

// GetGenres godoc
// GET /api/v1/genres/:kind
func (h *RecommendationHandler) GetGenres(c fiber.Ctx) error {
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(fiber.Map{
		"kind":   kind,
		"genres": h.svc.GenreNames(c.Context(), kind),
	})
}
