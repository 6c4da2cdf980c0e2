package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AdminCatalogHandler exposes product and courier management endpoints.
type AdminCatalogHandler struct {
	catalog *service.CatalogService
}

// NewAdminCatalogHandler constructs handler.
func NewAdminCatalogHandler(catalogService *service.CatalogService) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalog: catalogService}
}

// ListProducts handles GET /api/admin/products, including inactive items.
func (h *AdminCatalogHandler) ListProducts(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	filter := repository.ProductFilter{
		Search: optionalQuery(c, "search"),
		Limit:  limit,
		Offset: offset,
	}
	if status, err := parseCatalogStatus(c); err != nil {
		return err
	} else if status != nil {
		filter.Status = status
	}

	products, total, err := h.catalog.ListProducts(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewProductResponses(products),
		"meta": dto.PageMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// CreateProduct handles POST /api/admin/products.
func (h *AdminCatalogHandler) CreateProduct(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), principal.User, req.Name, req.Description, req.Price)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// UpdateProduct handles PATCH /api/admin/products/:id.
func (h *AdminCatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), principal.User, id, service.ProductUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// ToggleProduct handles POST /api/admin/products/:id/toggle.
func (h *AdminCatalogHandler) ToggleProduct(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalog.ToggleProductStatus(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// DeleteProduct handles DELETE /api/admin/products/:id.
func (h *AdminCatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteProduct(c.UserContext(), principal.User, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListCouriers handles GET /api/admin/couriers, including inactive items.
func (h *AdminCatalogHandler) ListCouriers(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	filter := repository.CourierFilter{Limit: limit, Offset: offset}
	if status, err := parseCatalogStatus(c); err != nil {
		return err
	} else if status != nil {
		filter.Status = status
	}

	couriers, total, err := h.catalog.ListCouriers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewCourierResponses(couriers),
		"meta": dto.PageMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// CreateCourier handles POST /api/admin/couriers.
func (h *AdminCatalogHandler) CreateCourier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateCourierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	if req.Name == "" || req.Code == "" {
		return apperrors.NewValidationError("name and code required", nil)
	}

	courier, err := h.catalog.CreateCourier(c.UserContext(), principal.User, req.Name, req.Code, req.TrackingPattern, req.TrackingLength)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCourierResponse(courier)})
}

// UpdateCourier handles PATCH /api/admin/couriers/:id.
func (h *AdminCatalogHandler) UpdateCourier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateCourierRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	courier, err := h.catalog.UpdateCourier(c.UserContext(), principal.User, id, service.CourierUpdateInput{
		Name:            req.Name,
		Code:            req.Code,
		TrackingLength:  req.TrackingLength,
		TrackingPattern: req.TrackingPattern,
		Status:          req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCourierResponse(courier)})
}

// DeleteCourier handles DELETE /api/admin/couriers/:id.
func (h *AdminCatalogHandler) DeleteCourier(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteCourier(c.UserContext(), principal.User, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func parseCatalogStatus(c *fiber.Ctx) (*domain.CatalogStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status := domain.CatalogStatus(raw)
	if !domain.ValidCatalogStatus(status) {
		return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
	}
	return &status, nil
}
