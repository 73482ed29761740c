package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"annlin/models"
)

// ListAuditLogs returns audit logs (admin only)
func (h *Handler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := h.db.WithContext(c.UserContext()).Model(&models.AuditLog{})
	for _, column := range []string{"action", "user_id", "entity_type", "entity_id"} {
		if v := c.Query(column); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return h.fail(c, "audit.list", "Failed to fetch audit logs", err)
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return h.fail(c, "audit.list", "Failed to fetch audit logs", err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetAuditActions returns available audit actions for filtering
func (h *Handler) GetAuditActions(c *fiber.Ctx) error {
	return c.JSON(models.AuditActions)
}
