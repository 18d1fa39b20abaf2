package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-recommender/internal/models"
	"movie-discovery-recommender/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
func (h *UserHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "recommender",
	})
}

// CreateUser creates a new user.
func (h *UserHandler) CreateUser(c fiber.Ctx) error {
	var req models.CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := validateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	user, err := h.svc.CreateUser(c.Context(), req)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "failed to create user"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns a user by ID.
func (h *UserHandler) GetUser(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}

	user, err := h.svc.GetUser(c.Context(), id)
	if err != nil {
		return respondError(c, err, "failed to get user")
	}

	return c.JSON(user)
}

// SetPreferences replaces the user's preferences for one kind.
func (h *UserHandler) SetPreferences(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var req models.SetPreferenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := validateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	if req.YearMin != nil && req.YearMax != nil && *req.YearMin > *req.YearMax {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "year_min must not exceed year_max"})
	}
	if req.RuntimeMin != nil && req.RuntimeMax != nil && *req.RuntimeMin > *req.RuntimeMax {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "runtime_min must not exceed runtime_max"})
	}

	pref, err := h.svc.SetPreferences(c.Context(), id, kind, req)
	if err != nil {
		return respondError(c, err, "failed to set preferences")
	}

	return c.JSON(pref)
}

// GetPreferences returns the user's preferences for one kind.
func (h *UserHandler) GetPreferences(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	pref, err := h.svc.GetPreferences(c.Context(), id, kind)
	if err != nil {
		return respondError(c, err, "failed to get preferences")
	}

	return c.JSON(pref)
}

// ListRatings returns the user's rating history for one kind.
func (h *UserHandler) ListRatings(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
	}
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	ratings, err := h.svc.ListRatings(c.Context(), id, kind)
	if err != nil {
		return respondError(c, err, "failed to get ratings")
	}

	if ratings == nil {
		ratings = []models.RatedItem{}
	}

	return c.JSON(fiber.Map{
		"user_id": id,
		"kind":    kind,
		"ratings": ratings,
	})
}

// GetItem returns a cached catalog item by its local id.
func (h *UserHandler) GetItem(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid item ID"})
	}

	item, err := h.svc.GetItem(c.Context(), id)
	if err != nil {
		return respondError(c, err, "failed to get item")
	}

	return c.JSON(item)
}

// respondError maps domain errors to status codes; anything unexpected is
// logged and reported as a 500 with msg.
func respondError(c fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "user not found"})
	case errors.Is(err, models.ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "item not found"})
	case errors.Is(err, models.ErrInvalidScore), errors.Is(err, models.ErrInvalidKind):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	slog.Error(msg, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: msg})
}
