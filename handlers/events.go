package handlers

import (
	"github.com/gofiber/fiber/v2"

	"annlin/models"
	"annlin/services"
)

// ListEvents returns events filtered by startDate, endDate and categoryId.
func (h *Handler) ListEvents(c *fiber.Ctx) error {
	filter, err := services.ParseEventFilter(c.Query("startDate"), c.Query("endDate"), c.Query("categoryId"), h.loc)
	if err != nil {
		return h.fail(c, "events.list", "Failed to fetch events", err)
	}

	events, err := h.events.List(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, "events.list", "Failed to fetch events", err)
	}
	return c.JSON(events)
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	event, err := h.events.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, "events.get", "Failed to fetch event", err)
	}
	return c.JSON(event)
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var input models.EventInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	event, err := h.events.Create(c.UserContext(), input, actor(c))
	if err != nil {
		return h.fail(c, "events.create", "Failed to create event", err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	var input models.EventUpdate
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	event, err := h.events.Update(c.UserContext(), c.Params("id"), input, actor(c))
	if err != nil {
		return h.fail(c, "events.update", "Failed to update event", err)
	}
	return c.JSON(event)
}

// DeleteEvent removes a single event, leaving the rest of its series alone.
func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.events.Delete(c.UserContext(), c.Params("id"), actor(c)); err != nil {
		return h.fail(c, "events.delete", "Failed to delete event", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateRecurringEvents expands a template into a series of stored events.
func (h *Handler) CreateRecurringEvents(c *fiber.Ctx) error {
	var input models.RecurringEventInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.events.GenerateSeries(c.UserContext(), input, actor(c))
	if err != nil {
		return h.fail(c, "events.generate", "Failed to create recurring events", err)
	}

	if created == 0 {
		return c.JSON(fiber.Map{
			"message":       "No occurrences fall inside the recurrence range",
			"eventsCreated": 0,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Recurring events created",
		"eventsCreated": created,
	})
}

// DeleteEventSeries removes every event in the series the given event
// belongs to.
func (h *Handler) DeleteEventSeries(c *fiber.Ctx) error {
	deleted, err := h.events.DeleteRecurringSeries(c.UserContext(), c.Params("id"), actor(c))
	if err != nil {
		return h.fail(c, "events.delete_series", "Failed to delete recurring series", err)
	}
	return c.JSON(fiber.Map{
		"message":       "Recurring series deleted",
		"eventsDeleted": deleted,
	})
}
