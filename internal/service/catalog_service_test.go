package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
)

type memoryCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	hits    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.store, key)
	}
	c.deletes++
	return nil
}

type catalogFixture struct {
	service  *CatalogService
	products *fakeProductRepo
	couriers *fakeCourierRepo
	orders   *fakeOrderRepo
	cache    *memoryCache
	admin    *domain.User
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	users := newFakeUserRepo()
	products := newFakeProductRepo()
	couriers := newFakeCourierRepo()
	orders := newFakeOrderRepo(products, couriers, users)
	cache := newMemoryCache()

	admin := &domain.User{RealName: "Admin", Phone: "13800000009", AlipayAccount: "admin@pay", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), admin))

	return &catalogFixture{
		products: products,
		couriers: couriers,
		orders:   orders,
		cache:    cache,
		admin:    admin,
		service: NewCatalogService(CatalogDependencies{
			ProductRepo: products,
			CourierRepo: couriers,
			OrderRepo:   orders,
			Cache:       cache,
			CacheTTL:    time.Minute,
			Dispatcher:  newRecordingDispatcher(),
			Logger:      zap.NewNop(),
		}),
	}
}

func TestCreateProductEnforcesUniqueName(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, domain.CatalogStatusActive, product.Status)

	_, err = f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("20.00"))
	assertDomainCode(t, err, "CONFLICT")

	_, err = f.service.CreateProduct(ctx, f.admin, "Free Parcel", "", decimal.Zero)
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestActiveProductListUsesCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	first, err := f.service.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.service.ListActiveProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, f.cache.hits, "second read should come from cache")
}

func TestProductMutationsInvalidateCache(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	_, err = f.service.ListActiveProducts(ctx)
	require.NoError(t, err)

	toggled, err := f.service.ToggleProductStatus(ctx, f.admin, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CatalogStatusInactive, toggled.Status)

	listed, err := f.service.ListActiveProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed, "inactive product must not be served from a stale cache")
}

func TestUpdateProductStrictStatus(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	_, err = f.service.UpdateProduct(ctx, f.admin, product.ID, ProductUpdateInput{})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	bad := "archived"
	_, err = f.service.UpdateProduct(ctx, f.admin, product.ID, ProductUpdateInput{Status: &bad})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	price := decimal.RequireFromString("15.00")
	updated, err := f.service.UpdateProduct(ctx, f.admin, product.ID, ProductUpdateInput{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
}

func TestDeleteProductBlockedWhileReferenced(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	courier, err := f.service.CreateCourier(ctx, f.admin, "SF Express", "SF", "", 0)
	require.NoError(t, err)

	order := &domain.Order{
		UserID:         f.admin.ID,
		ProductID:      product.ID,
		CourierID:      courier.ID,
		Quantity:       1,
		Price:          product.Price,
		TotalAmount:    product.Price,
		TrackingNumber: "SF123456",
		Status:         domain.OrderStatusPending,
	}
	require.NoError(t, f.orders.Create(ctx, order))

	assertDomainCode(t, f.service.DeleteProduct(ctx, f.admin, product.ID), "CONFLICT")
	assertDomainCode(t, f.service.DeleteCourier(ctx, f.admin, courier.ID), "CONFLICT")

	require.NoError(t, f.orders.Delete(ctx, order.ID))
	require.NoError(t, f.service.DeleteProduct(ctx, f.admin, product.ID))
	require.NoError(t, f.service.DeleteCourier(ctx, f.admin, courier.ID))
}

func TestGetProductVisibility(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.service.CreateProduct(ctx, f.admin, "Standard Parcel", "", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	_, err = f.service.ToggleProductStatus(ctx, f.admin, product.ID)
	require.NoError(t, err)

	_, err = f.service.GetProduct(ctx, product.ID, false)
	assertDomainCode(t, err, "NOT_FOUND")

	got, err := f.service.GetProduct(ctx, product.ID, true)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)
}

func TestCreateCourierValidatesTrackingLength(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateCourier(ctx, f.admin, "SF Express", "SF", "", -1)
	assertDomainCode(t, err, "VALIDATION_FAILED")

	courier, err := f.service.CreateCourier(ctx, f.admin, "SF Express", "SF", "", 12)
	require.NoError(t, err)
	assert.True(t, courier.EnforcesLength())
}
