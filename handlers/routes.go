package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"annlin/middleware"
)

// Register mounts the API on app. Public routes come first: the group
// middleware below matches every later /api route by prefix.
func Register(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	// Rate limiter for auth endpoints (5 requests per minute per IP)
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts. Please try again later.",
			})
		},
	})

	api.Get("/setup/status", h.CheckSetup)
	api.Post("/setup", authLimiter, h.Setup)
	api.Post("/login", authLimiter, h.Login)

	api.Get("/events", h.ListEvents)
	api.Get("/events/export", h.ExportCalendar)
	api.Get("/events/:id", h.GetEvent)
	api.Get("/categories", h.ListCategories)

	protected := api.Group("", middleware.AuthRequired(h.cfg.JWTSecret))
	protected.Get("/user", h.GetCurrentUser)

	editor := protected.Group("", middleware.EditorRequired())

	events := editor.Group("/events")
	events.Post("/", h.CreateEvent)
	events.Post("/export", h.CreateRecurringEvents)
	events.Post("/recurring", h.CreateRecurringEvents)
	events.Put("/:id", h.UpdateEvent)
	events.Delete("/:id/series", h.DeleteEventSeries)
	events.Delete("/:id", h.DeleteEvent)

	categories := editor.Group("/categories")
	categories.Post("/", h.CreateCategory)
	categories.Put("/:id", h.UpdateCategory)
	categories.Delete("/:id", h.DeleteCategory)

	admin := editor.Group("", middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("/", h.ListUsers)
	users.Post("/", h.CreateUser)
	users.Put("/:id", h.UpdateUser)
	users.Delete("/:id", h.DeleteUser)

	admin.Get("/settings", h.GetSettings)
	admin.Put("/settings", h.UpdateSettings)

	audit := admin.Group("/audit")
	audit.Get("/logs", h.ListAuditLogs)
	audit.Get("/actions", h.GetAuditActions)
}
