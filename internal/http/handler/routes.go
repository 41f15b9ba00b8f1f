package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/http/middleware"
	"bookapi/internal/service"
	"bookapi/internal/storage"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Book API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`

// Claim requirements of the guarded routes.
var (
	editor    = middleware.Requirement{Unrestricted: true}
	reverter  = middleware.Requirement{Unrestricted: true, Reason: true}
	moderator = middleware.Requirement{Unrestricted: true, MinReputation: 100, Reason: true}
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. db may be
// nil when books are kept in memory.
func RegisterRoutes(app *fiber.App, db *sql.DB, books service.BookManager, pages storage.Storage, presignExpiry time.Duration) {
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Type("html").SendString(docsPage)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	b := app.Group("/books")
	b.Post("/", CreateBook(books))
	b.Get("/:id", GetBook(books))
	b.Put("/:id", middleware.RequireClaims(editor), UpdateBook(books))
	b.Delete("/:id", middleware.RequireClaims(moderator), DeleteBook(books))

	b.Get("/:id/snapshots", ListSnapshots(books))
	b.Post("/:id/snapshots/revert", middleware.RequireClaims(reverter), RevertBook(books))
	b.Get("/:id/snapshots/:snapshotId", GetSnapshot(books))

	b.Put("/:id/vote", SetVote(books))
	b.Delete("/:id/vote", UnsetVote(books))

	b.Post("/:id/contents", AddContent(books))
	b.Get("/:id/contents/:contentId", GetContent(books))
	b.Put("/:id/contents/:contentId", UpdateContent(books))
	b.Delete("/:id/contents/:contentId", middleware.RequireClaims(moderator), RemoveContent(books))

	b.Put("/:id/contents/:contentId/pages/:index", UploadPage(books, pages))
	b.Get("/:id/contents/:contentId/pages/:index", GetPage(books, pages))
	b.Get("/:id/contents/:contentId/pages/:index/url", PresignPage(books, pages, presignExpiry))
}
