package handlers

import (
	"github.com/gofiber/fiber/v2"

	"annlin/models"
)

// ListCategories returns all categories
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return h.fail(c, "categories.list", "Failed to fetch categories", err)
	}
	return c.JSON(categories)
}

// CreateCategory creates a new category
func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var input models.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	category, err := h.categories.Create(c.UserContext(), input, actor(c))
	if err != nil {
		return h.fail(c, "categories.create", "Failed to create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory updates an existing category
func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	var input models.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	category, err := h.categories.Update(c.UserContext(), c.Params("id"), input, actor(c))
	if err != nil {
		return h.fail(c, "categories.update", "Failed to update category", err)
	}
	return c.JSON(category)
}

// DeleteCategory deletes a category nobody uses any more
func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), c.Params("id"), actor(c)); err != nil {
		return h.fail(c, "categories.delete", "Failed to delete category", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
