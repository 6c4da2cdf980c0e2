package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// OrdersHandler exposes order endpoints for authenticated users.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orderService}
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProductID <= 0 || req.CourierID <= 0 {
		return apperrors.NewValidationError("product_id and courier_id required", nil)
	}

	detail, err := h.orders.Create(c.UserContext(), principal.User, service.OrderCreateInput{
		ProductID:      req.ProductID,
		CourierID:      req.CourierID,
		Quantity:       req.Quantity,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(detail)})
}

// List handles GET /api/orders, always scoped to the caller's own orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}
	filter.UserID = &principal.User.ID

	details, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewOrderResponses(details),
		"meta": dto.PageMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// Get handles GET /api/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.orders.GetForCaller(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(detail)})
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrdersHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.orders.CancelAsOwner(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(detail)})
}

func parseOrderFilter(c *fiber.Ctx) (service.OrderListFilter, error) {
	limit, offset := parsePagination(c)
	filter := service.OrderListFilter{
		Status:     optionalQuery(c, "status"),
		SearchTerm: optionalQuery(c, "search"),
		SortBy:     c.Query("sort_by", "created_at"),
		SortDesc:   c.Query("sort_dir", "desc") != "asc",
		Limit:      limit,
		Offset:     offset,
	}

	for query, dest := range map[string]**time.Time{
		"created_from": &filter.CreatedFrom,
		"created_to":   &filter.CreatedTo,
	} {
		raw := c.Query(query)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid "+query, map[string]any{query: "expected RFC3339 timestamp"})
		}
		*dest = &parsed
	}
	return filter, nil
}
