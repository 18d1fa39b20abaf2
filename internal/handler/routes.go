package handler

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
)

// NewApp creates the fiber app with the JSON codec and error handler every
// route shares.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      name,
		ServerHeader: name,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})
}

// RegisterRoutes mounts the v1 API under router.
func RegisterRoutes(router fiber.Router, users *UserHandler, recs *RecommendationHandler) {
	router.Get("/health", users.Health)

	api := router.Group("/api/v1")

	// Users
	api.Post("/users", users.CreateUser)
	api.Get("/users/:id", users.GetUser)

	// Preferences
	api.Put("/users/:id/preferences/:kind", users.SetPreferences)
	api.Get("/users/:id/preferences/:kind", users.GetPreferences)

	// Ratings
	api.Post("/users/:id/ratings/:kind", recs.Rate)
	api.Get("/users/:id/ratings/:kind", users.ListRatings)

	// Recommendations
	api.Get("/users/:id/recommendations/:kind", recs.GetRecommendations)

	// Catalog
	api.Get("/items/:id", users.GetItem)
	api.Get("/genres/:kind", recs.GetGenres)
}
