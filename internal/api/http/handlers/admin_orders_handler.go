package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AdminOrdersHandler exposes the admin order endpoints.
type AdminOrdersHandler struct {
	orders *service.OrderService
}

// NewAdminOrdersHandler constructs handler.
func NewAdminOrdersHandler(orderService *service.OrderService) *AdminOrdersHandler {
	return &AdminOrdersHandler{orders: orderService}
}

// List handles GET /api/admin/orders across all users, optionally filtered by
// user_id.
func (h *AdminOrdersHandler) List(c *fiber.Ctx) error {
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return apperrors.NewValidationError("invalid user_id", map[string]any{"user_id": raw})
		}
		filter.UserID = &userID
	}

	details, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewOrderResponses(details),
		"meta": dto.PageMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// Update handles PATCH /api/admin/orders/:id.
func (h *AdminOrdersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.AdminUpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	detail, err := h.orders.AdminUpdate(c.UserContext(), principal.User, id, service.OrderUpdateInput{
		Status:         req.Status,
		Quantity:       req.Quantity,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(detail)})
}

// Delete handles DELETE /api/admin/orders/:id.
func (h *AdminOrdersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.UserContext(), principal.User, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
