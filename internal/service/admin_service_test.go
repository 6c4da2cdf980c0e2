package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
)

type adminFixture struct {
	service    *AdminService
	users      *fakeUserRepo
	orders     *fakeOrderRepo
	products   *fakeProductRepo
	couriers   *fakeCourierRepo
	adminLogs  *fakeAdminLogRepo
	dispatcher *recordingDispatcher
	admin      *domain.User
	member     *domain.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	ctx := context.Background()

	users := newFakeUserRepo()
	products := newFakeProductRepo()
	couriers := newFakeCourierRepo()
	orders := newFakeOrderRepo(products, couriers, users)
	adminLogs := newFakeAdminLogRepo()
	dispatcher := newRecordingDispatcher()

	// Wire the audit trail the way main does, so admin mutations land in
	// the log store.
	NewAuditService(adminLogs, zap.NewNop()).RegisterHandlers(dispatcher)

	f := &adminFixture{
		users:      users,
		orders:     orders,
		products:   products,
		couriers:   couriers,
		adminLogs:  adminLogs,
		dispatcher: dispatcher,
		service: NewAdminService(AdminDependencies{
			UserRepo:     users,
			OrderRepo:    orders,
			ProductRepo:  products,
			CourierRepo:  couriers,
			AdminLogRepo: adminLogs,
			Dispatcher:   dispatcher,
		}),
	}

	f.admin = &domain.User{RealName: "Admin", Phone: "13800000009", AlipayAccount: "admin@pay", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	f.member = &domain.User{RealName: "Li Ming", Phone: "13800000001", AlipayAccount: "li@pay", Role: domain.RoleUser, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(ctx, f.admin))
	require.NoError(t, users.Create(ctx, f.member))
	return f
}

func TestAdminUpdateUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	badRole := "superuser"
	_, err = f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{Role: &badRole})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	badStatus := "banned"
	_, err = f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{Status: &badStatus})
	assertDomainCode(t, err, "VALIDATION_FAILED")

	alipay := "admin@pay"
	_, err = f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{AlipayAccount: &alipay})
	assertDomainCode(t, err, "CONFLICT")

	inactive := string(domain.UserStatusInactive)
	updated, err := f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInactive, updated.Status)

	_, err = f.service.UpdateUser(ctx, f.admin, 9999, UserUpdateInput{Status: &inactive})
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestAdminDeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	assertDomainCode(t, f.service.DeleteUser(ctx, f.admin, f.admin.ID), "VALIDATION_FAILED")
	assertDomainCode(t, f.service.DeleteUser(ctx, f.admin, 9999), "NOT_FOUND")

	require.NoError(t, f.service.DeleteUser(ctx, f.admin, f.member.ID))
	_, err := f.service.GetUser(ctx, f.member.ID)
	assertDomainCode(t, err, "NOT_FOUND")
}

func TestAdminMutationsAreAudited(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	inactive := string(domain.UserStatusInactive)
	_, err := f.service.UpdateUser(ctx, f.admin, f.member.ID, UserUpdateInput{Status: &inactive})
	require.NoError(t, err)

	entries, err := f.service.RecentLogs(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.admin.ID, entries[0].AdminID)
	assert.Equal(t, "user_updated", entries[0].Action)
	require.NotNil(t, entries[0].TargetID)
	assert.Equal(t, f.member.ID, *entries[0].TargetID)
	assert.Contains(t, entries[0].Details, "inactive")
}

func TestStatsAggregation(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	product := &domain.Product{Name: "Standard Parcel", Price: decimal.RequireFromString("12.50"), Status: domain.CatalogStatusActive}
	require.NoError(t, f.products.Create(ctx, product))
	courier := &domain.Courier{Name: "SF Express", Code: "SF", Status: domain.CatalogStatusInactive}
	require.NoError(t, f.couriers.Create(ctx, courier))

	order := &domain.Order{
		UserID:         f.member.ID,
		ProductID:      product.ID,
		CourierID:      courier.ID,
		Quantity:       2,
		Price:          product.Price,
		TotalAmount:    product.Price.Mul(decimal.NewFromInt(2)),
		TrackingNumber: "SF12345678",
		Status:         domain.OrderStatusPending,
	}
	require.NoError(t, f.orders.Create(ctx, order))

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users.Total)
	assert.Equal(t, int64(2), stats.Users.Active)
	assert.Equal(t, int64(1), stats.Orders["pending"])
	assert.Equal(t, int64(1), stats.Products.Total)
	assert.Equal(t, int64(1), stats.Products.Active)
	assert.Equal(t, int64(1), stats.Couriers.Total)
	assert.Equal(t, int64(0), stats.Couriers.Active)
}
