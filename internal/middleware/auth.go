package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// publicPrefixes bypass authentication.
var publicPrefixes = []string{"/health", "/swagger", "/metrics"}

// AuthMiddleware provides mock Bearer token authentication: any non-empty
// token is accepted and stored in Locals under "auth_token".
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "missing Authorization header")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return unauthorized(c, "invalid Authorization header format, expected 'Bearer <token>'")
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return unauthorized(c, "empty bearer token")
		}

		// Mock validation: any non-empty token is accepted
		c.Locals("auth_token", token)

		return c.Next()
	}
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
