package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"annlin/services"
)

// ExportCalendar serves the filtered events as an .ics download.
func (h *Handler) ExportCalendar(c *fiber.Ctx) error {
	filter, err := services.ParseEventFilter(c.Query("startDate"), c.Query("endDate"), c.Query("categoryId"), h.loc)
	if err != nil {
		return h.fail(c, "calendar.export", "Failed to export calendar", err)
	}

	body, err := h.exporter.Export(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, "calendar.export", "Failed to export calendar", err)
	}

	c.Set(fiber.HeaderContentType, services.CalendarContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, h.exporter.Filename(h.exporter.Now().In(h.loc))))
	return c.SendString(body)
}
