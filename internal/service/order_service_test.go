package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

type orderFixture struct {
	service    *OrderService
	users      *fakeUserRepo
	products   *fakeProductRepo
	couriers   *fakeCourierRepo
	orders     *fakeOrderRepo
	dispatcher *recordingDispatcher

	owner   *domain.User
	other   *domain.User
	admin   *domain.User
	product *domain.Product
	courier *domain.Courier
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()

	users := newFakeUserRepo()
	products := newFakeProductRepo()
	couriers := newFakeCourierRepo()
	orders := newFakeOrderRepo(products, couriers, users)
	dispatcher := newRecordingDispatcher()

	f := &orderFixture{
		users:      users,
		products:   products,
		couriers:   couriers,
		orders:     orders,
		dispatcher: dispatcher,
		service: NewOrderService(OrderDependencies{
			OrderRepo:   orders,
			ProductRepo: products,
			CourierRepo: couriers,
			Dispatcher:  dispatcher,
		}),
	}

	f.owner = &domain.User{RealName: "Li Ming", Phone: "13800000001", AlipayAccount: "li@pay", Role: domain.RoleUser, Status: domain.UserStatusActive}
	f.other = &domain.User{RealName: "Wang Fang", Phone: "13800000002", AlipayAccount: "wang@pay", Role: domain.RoleUser, Status: domain.UserStatusActive}
	f.admin = &domain.User{RealName: "Admin", Phone: "13800000009", AlipayAccount: "admin@pay", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(ctx, f.owner))
	require.NoError(t, users.Create(ctx, f.other))
	require.NoError(t, users.Create(ctx, f.admin))

	f.product = &domain.Product{Name: "Standard Parcel", Price: decimal.RequireFromString("12.50"), Status: domain.CatalogStatusActive}
	require.NoError(t, products.Create(ctx, f.product))

	f.courier = &domain.Courier{Name: "SF Express", Code: "SF", TrackingLength: 12, Status: domain.CatalogStatusActive}
	require.NoError(t, couriers.Create(ctx, f.courier))

	return f
}

func (f *orderFixture) createInput() OrderCreateInput {
	return OrderCreateInput{
		ProductID:      f.product.ID,
		CourierID:      f.courier.ID,
		Quantity:       3,
		TrackingNumber: "SF1234567890",
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestOrderCreateSnapshotsPrice(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, detail.Status)
	assert.True(t, detail.Price.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, detail.TotalAmount.Equal(decimal.RequireFromString("37.50")))

	// A later catalog price change must not affect the stored order.
	f.product.Price = decimal.RequireFromString("99.99")
	require.NoError(t, f.products.Update(ctx, f.product))

	reloaded, err := f.service.GetForCaller(ctx, f.owner, detail.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalAmount.Equal(decimal.RequireFromString("37.50")))
}

func TestOrderCreateValidatesQuantityAndTracking(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	input := f.createInput()
	input.Quantity = 0
	_, err := f.service.Create(ctx, f.owner, input)
	assertDomainCode(t, err, "VALIDATION_FAILED")

	input = f.createInput()
	input.Quantity = 1000
	_, err = f.service.Create(ctx, f.owner, input)
	assertDomainCode(t, err, "VALIDATION_FAILED")

	input = f.createInput()
	input.TrackingNumber = "AB12"
	_, err = f.service.Create(ctx, f.owner, input)
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestOrderCreateEnforcesCourierTrackingLength(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	input := f.createInput()
	input.TrackingNumber = "SF12345" // courier expects 12 characters
	_, err := f.service.Create(ctx, f.owner, input)
	assertDomainCode(t, err, "VALIDATION_FAILED")

	// A courier without a configured length accepts any tracking number in
	// the global bounds.
	freeCourier := &domain.Courier{Name: "Any Post", Code: "AP", TrackingLength: 0, Status: domain.CatalogStatusActive}
	require.NoError(t, f.couriers.Create(ctx, freeCourier))

	input = f.createInput()
	input.CourierID = freeCourier.ID
	input.TrackingNumber = "AP12345"
	_, err = f.service.Create(ctx, f.owner, input)
	require.NoError(t, err)
}

func TestOrderCreateRejectsInactiveReferences(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	f.product.Status = domain.CatalogStatusInactive
	require.NoError(t, f.products.Update(ctx, f.product))

	_, err := f.service.Create(ctx, f.owner, f.createInput())
	assertDomainCode(t, err, "NOT_FOUND")

	f.product.Status = domain.CatalogStatusActive
	require.NoError(t, f.products.Update(ctx, f.product))
	f.courier.Status = domain.CatalogStatusInactive
	require.NoError(t, f.couriers.Update(ctx, f.courier))

	_, err = f.service.Create(ctx, f.owner, f.createInput())
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestOrderCreateClassifiesTrackingConflicts(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	// Same user resubmitting the same tracking number.
	_, err = f.service.Create(ctx, f.owner, f.createInput())
	assertDomainCode(t, err, "DUPLICATE_SUBMISSION")

	// A different user colliding on the tracking number.
	_, err = f.service.Create(ctx, f.other, f.createInput())
	assertDomainCode(t, err, "TRACKING_NUMBER_TAKEN")
}

func TestOrderGetEnforcesOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	_, err = f.service.GetForCaller(ctx, f.other, detail.ID)
	assertDomainCode(t, err, "FORBIDDEN")

	got, err := f.service.GetForCaller(ctx, f.admin, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)
}

func TestOrderCancelOnlyFromPending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	_, err = f.service.CancelAsOwner(ctx, f.other, detail.ID)
	assertDomainCode(t, err, "FORBIDDEN")

	cancelled, err := f.service.CancelAsOwner(ctx, f.owner, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	_, err = f.service.CancelAsOwner(ctx, f.owner, detail.ID)
	assertDomainCode(t, err, "INVALID_TRANSITION")
}

func TestOrderCancelRejectedOnceProcessing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	status := string(domain.OrderStatusProcessing)
	_, err = f.service.AdminUpdate(ctx, f.admin, detail.ID, OrderUpdateInput{Status: &status})
	require.NoError(t, err)

	_, err = f.service.CancelAsOwner(ctx, f.owner, detail.ID)
	assertDomainCode(t, err, "INVALID_TRANSITION")
}

func TestAdminUpdateValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	_, err = f.service.AdminUpdate(ctx, f.admin, detail.ID, OrderUpdateInput{})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	bad := "shipped"
	_, err = f.service.AdminUpdate(ctx, f.admin, detail.ID, OrderUpdateInput{Status: &bad})
	assertDomainCode(t, err, "VALIDATION_FAILED")
}

func TestAdminUpdateRecomputesTotalFromSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	// Catalog price changes between creation and the quantity edit.
	f.product.Price = decimal.RequireFromString("50.00")
	require.NoError(t, f.products.Update(ctx, f.product))

	quantity := 5
	updated, err := f.service.AdminUpdate(ctx, f.admin, detail.ID, OrderUpdateInput{Quantity: &quantity})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("62.50")),
		"total must use the snapshot price, got %s", updated.TotalAmount)
}

func TestAdminUpdateTrackingCollision(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	input := f.createInput()
	input.TrackingNumber = "SF0987654321"
	second, err := f.service.Create(ctx, f.other, input)
	require.NoError(t, err)

	tracking := first.TrackingNumber
	_, err = f.service.AdminUpdate(ctx, f.admin, second.ID, OrderUpdateInput{TrackingNumber: &tracking})
	assertDomainCode(t, err, "TRACKING_NUMBER_TAKEN")
}

func TestAdminDeletePublishesEvent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, f.createInput())
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, f.admin, detail.ID))
	assertDomainCode(t, f.service.Delete(ctx, f.admin, detail.ID), "NOT_FOUND")

	var deleted bool
	for _, event := range f.dispatcher.published() {
		if event.Type == events.EventOrderDeleted {
			deleted = true
		}
	}
	assert.True(t, deleted, "expected an order_deleted event")
}

func TestOrderListRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	bad := "unknown"
	_, _, err := f.service.List(ctx, OrderListFilter{Status: &bad})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	valid := string(domain.OrderStatusPending)
	_, _, err = f.service.List(ctx, OrderListFilter{Status: &valid})
	require.NoError(t, err)
}
