package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

const (
	cacheKeyActiveProducts = "catalog:products:active"
	cacheKeyActiveCouriers = "catalog:couriers:active"
)

// CatalogCache caches active catalog listings. Cache failures are logged and
// never fail a request.
type CatalogCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogService manages products and couriers referenced by orders.
type CatalogService struct {
	products   repository.ProductRepository
	couriers   repository.CourierRepository
	orders     repository.OrderRepository
	cache      CatalogCache
	cacheTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CatalogDependencies bundles collaborators for the catalog service.
type CatalogDependencies struct {
	ProductRepo repository.ProductRepository
	CourierRepo repository.CourierRepository
	OrderRepo   repository.OrderRepository
	Cache       CatalogCache
	CacheTTL    time.Duration
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		products:   deps.ProductRepo,
		couriers:   deps.CourierRepo,
		orders:     deps.OrderRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ListActiveProducts returns active products, served from cache when possible.
func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	var cached []domain.Product
	if s.cacheGet(ctx, cacheKeyActiveProducts, &cached) {
		return cached, nil
	}
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyActiveProducts, products)
	return products, nil
}

// ListActiveCouriers returns active couriers, served from cache when possible.
func (s *CatalogService) ListActiveCouriers(ctx context.Context) ([]domain.Courier, error) {
	var cached []domain.Courier
	if s.cacheGet(ctx, cacheKeyActiveCouriers, &cached) {
		return cached, nil
	}
	couriers, err := s.couriers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyActiveCouriers, couriers)
	return couriers, nil
}

// GetProduct fetches a product. Inactive products are visible only when
// includeInactive is set (admin callers).
func (s *CatalogService) GetProduct(ctx context.Context, id int64, includeInactive bool) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, err
	}
	if !product.IsActive() && !includeInactive {
		return nil, apperrors.NewNotFound("product")
	}
	return product, nil
}

// ListProducts returns products matching the filter (admin listing).
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int64, error) {
	return s.products.List(ctx, filter)
}

// CreateProduct adds a catalog item; the product name must be unique.
func (s *CatalogService) CreateProduct(ctx context.Context, caller *domain.User, name, description string, price decimal.Decimal) (*domain.Product, error) {
	if price.IsNegative() || price.IsZero() {
		return nil, apperrors.NewValidationError("price must be positive", map[string]any{"price": price.String()})
	}
	if _, err := s.products.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("product name already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Status:      domain.CatalogStatusActive,
	}
	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateProductName) {
			return nil, apperrors.NewConflict("product name already exists", nil)
		}
		return nil, err
	}

	s.invalidate(ctx, cacheKeyActiveProducts)
	s.publishCatalogChange(ctx, caller, "product", product.ID, "created")
	return product, nil
}

// ProductUpdateInput carries optional product fields.
type ProductUpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Status      *string
}

// UpdateProduct applies a partial update. Price edits never touch existing
// orders, which keep their snapshot price.
func (s *CatalogService) UpdateProduct(ctx context.Context, caller *domain.User, id int64, input ProductUpdateInput) (*domain.Product, error) {
	if input.Name == nil && input.Description == nil && input.Price == nil && input.Status == nil {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, err
	}

	if input.Name != nil && *input.Name != product.Name {
		if existing, err := s.products.GetByName(ctx, *input.Name); err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("product name already exists", nil)
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, apperrors.NewValidationError("price must be positive", map[string]any{"price": input.Price.String()})
		}
		product.Price = *input.Price
	}
	if input.Status != nil {
		status := domain.CatalogStatus(*input.Status)
		if !domain.ValidCatalogStatus(status) {
			return nil, apperrors.NewValidationError("invalid product status", map[string]any{"status": *input.Status})
		}
		product.Status = status
	}

	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateProductName) {
			return nil, apperrors.NewConflict("product name already exists", nil)
		}
		return nil, err
	}

	s.invalidate(ctx, cacheKeyActiveProducts)
	s.publishCatalogChange(ctx, caller, "product", product.ID, "updated")
	return product, nil
}

// ToggleProductStatus flips a product between active and inactive.
func (s *CatalogService) ToggleProductStatus(ctx context.Context, caller *domain.User, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, err
	}
	if product.Status == domain.CatalogStatusActive {
		product.Status = domain.CatalogStatusInactive
	} else {
		product.Status = domain.CatalogStatusActive
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cacheKeyActiveProducts)
	s.publishCatalogChange(ctx, caller, "product", product.ID, "status_toggled")
	return product, nil
}

// DeleteProduct removes a product unless orders still reference it.
func (s *CatalogService) DeleteProduct(ctx context.Context, caller *domain.User, id int64) error {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product")
		}
		return err
	}
	count, err := s.orders.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("product is referenced by existing orders", map[string]any{"order_count": count})
	}
	if err := s.products.Delete(ctx, id); err != nil {
		// The FK restriction is the authoritative guard against a
		// concurrent order creation.
		if errors.Is(err, repository.ErrRowReferenced) {
			return apperrors.NewConflict("product is referenced by existing orders", nil)
		}
		return err
	}
	s.invalidate(ctx, cacheKeyActiveProducts)
	s.publishCatalogChange(ctx, caller, "product", id, "deleted")
	return nil
}

// GetCourier fetches a courier. Inactive couriers are visible only when
// includeInactive is set.
func (s *CatalogService) GetCourier(ctx context.Context, id int64, includeInactive bool) (*domain.Courier, error) {
	courier, err := s.couriers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("courier")
		}
		return nil, err
	}
	if !courier.IsActive() && !includeInactive {
		return nil, apperrors.NewNotFound("courier")
	}
	return courier, nil
}

// ListCouriers returns couriers matching the filter (admin listing).
func (s *CatalogService) ListCouriers(ctx context.Context, filter repository.CourierFilter) ([]domain.Courier, int64, error) {
	return s.couriers.List(ctx, filter)
}

// CreateCourier adds a shipping carrier. A tracking length of zero disables
// the length rule.
func (s *CatalogService) CreateCourier(ctx context.Context, caller *domain.User, name, code, pattern string, trackingLength int) (*domain.Courier, error) {
	if trackingLength < 0 || trackingLength > maxTrackingLength {
		return nil, apperrors.NewValidationError("invalid tracking length", map[string]any{
			"tracking_length": "must be between 0 and 50",
		})
	}

	courier := &domain.Courier{
		Name:            name,
		Code:            code,
		TrackingLength:  trackingLength,
		TrackingPattern: pattern,
		Status:          domain.CatalogStatusActive,
	}
	if err := s.couriers.Create(ctx, courier); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cacheKeyActiveCouriers)
	s.publishCatalogChange(ctx, caller, "courier", courier.ID, "created")
	return courier, nil
}

// CourierUpdateInput carries optional courier fields.
type CourierUpdateInput struct {
	Name            *string
	Code            *string
	TrackingLength  *int
	TrackingPattern *string
	Status          *string
}

// UpdateCourier applies a partial update.
func (s *CatalogService) UpdateCourier(ctx context.Context, caller *domain.User, id int64, input CourierUpdateInput) (*domain.Courier, error) {
	if input.Name == nil && input.Code == nil && input.TrackingLength == nil && input.TrackingPattern == nil && input.Status == nil {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	courier, err := s.couriers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("courier")
		}
		return nil, err
	}

	if input.Name != nil {
		courier.Name = *input.Name
	}
	if input.Code != nil {
		courier.Code = *input.Code
	}
	if input.TrackingLength != nil {
		if *input.TrackingLength < 0 || *input.TrackingLength > maxTrackingLength {
			return nil, apperrors.NewValidationError("invalid tracking length", map[string]any{
				"tracking_length": "must be between 0 and 50",
			})
		}
		courier.TrackingLength = *input.TrackingLength
	}
	if input.TrackingPattern != nil {
		courier.TrackingPattern = *input.TrackingPattern
	}
	if input.Status != nil {
		status := domain.CatalogStatus(*input.Status)
		if !domain.ValidCatalogStatus(status) {
			return nil, apperrors.NewValidationError("invalid courier status", map[string]any{"status": *input.Status})
		}
		courier.Status = status
	}

	if err := s.couriers.Update(ctx, courier); err != nil {
		return nil, err
	}
	s.invalidate(ctx, cacheKeyActiveCouriers)
	s.publishCatalogChange(ctx, caller, "courier", courier.ID, "updated")
	return courier, nil
}

// DeleteCourier removes a courier unless orders still reference it.
func (s *CatalogService) DeleteCourier(ctx context.Context, caller *domain.User, id int64) error {
	if _, err := s.couriers.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("courier")
		}
		return err
	}
	count, err := s.orders.CountByCourier(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewConflict("courier is referenced by existing orders", map[string]any{"order_count": count})
	}
	if err := s.couriers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRowReferenced) {
			return apperrors.NewConflict("courier is referenced by existing orders", nil)
		}
		return err
	}
	s.invalidate(ctx, cacheKeyActiveCouriers)
	s.publishCatalogChange(ctx, caller, "courier", id, "deleted")
	return nil
}

// ProductCounts exposes product totals for the stats endpoint.
func (s *CatalogService) ProductCounts(ctx context.Context) (total, active int64, err error) {
	return s.products.Counts(ctx)
}

// CourierCounts exposes courier totals for the stats endpoint.
func (s *CatalogService) CourierCounts(ctx context.Context) (total, active int64, err error) {
	return s.couriers.Counts(ctx)
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, val, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) publishCatalogChange(ctx context.Context, caller *domain.User, targetType string, targetID int64, action string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventCatalogChanged,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: targetType,
		TargetID:   &targetID,
		Details:    map[string]any{"action": action},
		Timestamp:  time.Now(),
	}
	_ = s.dispatcher.Publish(ctx, event)
}
