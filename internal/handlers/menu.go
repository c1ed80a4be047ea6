package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/grillhouse/internal/services"
)

// MenuHandler serves the public menu.
type MenuHandler struct {
	menu *services.MenuService
}

// NewMenuHandler constructs a MenuHandler.
func NewMenuHandler(menu *services.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// ListCategories returns every category with its active products.
func (h *MenuHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.menu.Categories(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

// GetProduct returns one active product.
func (h *MenuHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	product, err := h.menu.Product(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}
