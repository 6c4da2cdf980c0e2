package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/service"
)

// CatalogHandler exposes the public product and courier listings.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// ListProducts handles GET /api/products (active items only).
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListActiveProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponses(products)})
}

// GetProduct handles GET /api/products/:id. Admins can view inactive items.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	includeInactive := false
	if principal, ok := auth.PrincipalFromContext(c); ok {
		includeInactive = principal.IsAdmin()
	}

	product, err := h.catalog.GetProduct(c.UserContext(), id, includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// ListCouriers handles GET /api/couriers (active items only).
func (h *CatalogHandler) ListCouriers(c *fiber.Ctx) error {
	couriers, err := h.catalog.ListActiveCouriers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCourierResponses(couriers)})
}

// GetCourier handles GET /api/couriers/:id. Admins can view inactive items.
func (h *CatalogHandler) GetCourier(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	includeInactive := false
	if principal, ok := auth.PrincipalFromContext(c); ok {
		includeInactive = principal.IsAdmin()
	}

	courier, err := h.catalog.GetCourier(c.UserContext(), id, includeInactive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCourierResponse(courier)})
}
