package handler

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"gopkg.in/yaml.v3"
)

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/swagger/doc.json',
      dom_id: '#swagger-ui',
      deepLinking: true,
      persistAuthorization: true
    });
  </script>
</body>
</html>`

// RegisterSwagger serves the OpenAPI document as YAML and JSON plus a
// Swagger UI page under /swagger. The document is parsed once here so a
// broken file fails at startup instead of in the browser.
func RegisterSwagger(router fiber.Router, title string, doc []byte) error {
	var parsed map[string]any
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return fmt.Errorf("parse openapi document: %w", err)
	}
	asJSON, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("encode openapi document: %w", err)
	}
	page := fmt.Sprintf(swaggerPage, title)

	sw := router.Group("/swagger")
	sw.Get("/doc.yaml", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc)
	})
	sw.Get("/doc.json", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(asJSON)
	})
	sw.Get("/*", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(page)
	})
	return nil
}
