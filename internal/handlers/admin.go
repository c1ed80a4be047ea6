package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/grillhouse/internal/services"
	"github.com/example/grillhouse/internal/utils"
)

// AdminHandler exposes the order back office.
type AdminHandler struct {
	admin  *services.AdminService
	orders *services.OrderService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admin *services.AdminService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{admin: admin, orders: orders}
}

// Dashboard returns shop-wide statistics.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// ListOrders returns a filtered page of orders with status counts.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	list, err := h.admin.ListOrders(c.UserContext(), services.OrderFilters{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   pagination.Page,
		Limit:  pagination.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

// GetOrder returns one order with items, payment and customer.
func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	order, err := h.admin.Order(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

// UpdateOrder applies a sparse patch and returns the full order.
func (h *AdminHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var patch services.OrderPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}
