package handlers

import (
	"github.com/gofiber/fiber/v2"

	"annlin/models"
)

type AppSettings struct {
	SessionDurationHours int `json:"sessionDurationHours" validate:"min=1,max=720"`
}

// GetSettings returns non-sensitive application settings (admin only)
func (h *Handler) GetSettings(c *fiber.Ctx) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.JSON(AppSettings{
		SessionDurationHours: h.cfg.SessionDurationHours,
	})
}

// UpdateSettings updates application settings (admin only)
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	var input AppSettings
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(input).OrNil(); err != nil {
		return h.fail(c, "settings.update", "Failed to save settings", err)
	}

	h.mu.Lock()
	previous := h.cfg.SessionDurationHours
	h.cfg.SessionDurationHours = input.SessionDurationHours
	err := h.cfg.Save()
	if err != nil {
		h.cfg.SessionDurationHours = previous
	}
	h.mu.Unlock()
	if err != nil {
		return h.fail(c, "settings.update", "Failed to save settings", err)
	}

	err = h.audit.Record(h.db.WithContext(c.UserContext()), actor(c), models.AuditActionSettingsUpdate, models.EntitySettings, "session",
		map[string]int{"before": previous, "after": input.SessionDurationHours})
	if err != nil {
		h.log.Op("settings.update").WithError(err).Warn("settings saved but audit entry failed")
	}

	return c.JSON(input)
}
