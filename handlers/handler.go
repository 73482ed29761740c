package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"annlin/config"
	"annlin/logger"
	"annlin/middleware"
	"annlin/services"
)

// Handler adapts HTTP requests onto the services. It holds no business rules
// of its own beyond request parsing and status mapping.
type Handler struct {
	db         *gorm.DB
	cfg        *config.Config
	log        *logger.Logger
	validator  *services.Validator
	audit      *services.Auditor
	events     *services.EventService
	categories *services.CategoryService
	exporter   *services.CalendarExporter
	loc        *time.Location

	// guards cfg.SessionDurationHours, which settings can change at runtime
	mu sync.RWMutex
}

type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Log        *logger.Logger
	Validator  *services.Validator
	Auditor    *services.Auditor
	Events     *services.EventService
	Categories *services.CategoryService
	Exporter   *services.CalendarExporter
}

func New(d Deps) *Handler {
	loc, err := time.LoadLocation(d.Config.Calendar.Timezone)
	if err != nil {
		d.Log.WithError(err).WithField("timezone", d.Config.Calendar.Timezone).Warn("unknown calendar timezone, using UTC")
		loc = time.UTC
	}
	return &Handler{
		db:         d.DB,
		cfg:        d.Config,
		log:        d.Log,
		validator:  d.Validator,
		audit:      d.Auditor,
		events:     d.Events,
		categories: d.Categories,
		exporter:   d.Exporter,
		loc:        loc,
	}
}

func (h *Handler) sessionDuration() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return time.Duration(h.cfg.SessionDurationHours) * time.Hour
}

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{
		UserID:   middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		IP:       c.IP(),
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// fail maps a service error onto a response. Persistence failures are logged
// under op and answered with generic so no internals leak to the client.
func (h *Handler) fail(c *fiber.Ctx, op, generic string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		body := fiber.Map{"error": verr.Message}
		if len(verr.Fields) > 0 {
			body["details"] = verr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrNotRecurring):
		return badRequest(c, "Event is not part of a recurring series")
	case errors.Is(err, services.ErrCategoryInUse):
		return badRequest(c, "Category is still used by events")
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Name already exists"})
	}

	h.log.Op(op).WithError(err).WithField("path", c.Path()).Error(generic)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": generic})
}
