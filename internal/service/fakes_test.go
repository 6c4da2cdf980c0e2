package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
)

// In-memory repository fakes backing the service tests. They mirror the
// constraint behavior of the real repositories: pgx.ErrNoRows for missing
// rows and the repository sentinel errors for unique violations.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Phone == user.Phone {
			return repository.ErrDuplicatePhone
		}
		if existing.AlipayAccount == user.AlipayAccount {
			return repository.ErrDuplicateAlipay
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range r.users {
		if existing.ID != user.ID && existing.AlipayAccount == user.AlipayAccount {
			return repository.ErrDuplicateAlipay
		}
	}
	clone := *user
	clone.UpdatedAt = time.Now()
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByAlipay(_ context.Context, alipay string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.AlipayAccount == alipay {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if filter.Search != nil && !strings.Contains(user.RealName, *filter.Search) &&
			!strings.Contains(user.Phone, *filter.Search) {
			continue
		}
		result = append(result, *user)
	}
	return result, int64(len(result)), nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountByStatus(_ context.Context) (map[domain.UserStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.UserStatus]int64)
	for _, user := range r.users {
		counts[user.Status]++
	}
	return counts, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*domain.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == product.Name {
			return repository.ErrDuplicateProductName
		}
	}
	r.nextID++
	product.ID = r.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product, ok := r.products[id]; ok {
		clone := *product
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProductRepo) GetByName(_ context.Context, name string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.Name == name {
			clone := *product
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Product
	for _, product := range r.products {
		result = append(result, *product)
	}
	return result, int64(len(result)), nil
}

func (r *fakeProductRepo) ListActive(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Product
	for _, product := range r.products {
		if product.IsActive() {
			result = append(result, *product)
		}
	}
	return result, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) Counts(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, active int64
	for _, product := range r.products {
		total++
		if product.IsActive() {
			active++
		}
	}
	return total, active, nil
}

type fakeCourierRepo struct {
	mu       sync.Mutex
	nextID   int64
	couriers map[int64]*domain.Courier
}

func newFakeCourierRepo() *fakeCourierRepo {
	return &fakeCourierRepo{couriers: make(map[int64]*domain.Courier)}
}

func (r *fakeCourierRepo) Create(_ context.Context, courier *domain.Courier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	courier.ID = r.nextID
	courier.CreatedAt = time.Now()
	courier.UpdatedAt = courier.CreatedAt
	clone := *courier
	r.couriers[courier.ID] = &clone
	return nil
}

func (r *fakeCourierRepo) Update(_ context.Context, courier *domain.Courier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.couriers[courier.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *courier
	r.couriers[courier.ID] = &clone
	return nil
}

func (r *fakeCourierRepo) GetByID(_ context.Context, id int64) (*domain.Courier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if courier, ok := r.couriers[id]; ok {
		clone := *courier
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCourierRepo) List(_ context.Context, _ repository.CourierFilter) ([]domain.Courier, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Courier
	for _, courier := range r.couriers {
		result = append(result, *courier)
	}
	return result, int64(len(result)), nil
}

func (r *fakeCourierRepo) ListActive(_ context.Context) ([]domain.Courier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Courier
	for _, courier := range r.couriers {
		if courier.IsActive() {
			result = append(result, *courier)
		}
	}
	return result, nil
}

func (r *fakeCourierRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.couriers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.couriers, id)
	return nil
}

func (r *fakeCourierRepo) Counts(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, active int64
	for _, courier := range r.couriers {
		total++
		if courier.IsActive() {
			active++
		}
	}
	return total, active, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*domain.Order

	products *fakeProductRepo
	couriers *fakeCourierRepo
	users    *fakeUserRepo
}

func newFakeOrderRepo(products *fakeProductRepo, couriers *fakeCourierRepo, users *fakeUserRepo) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[int64]*domain.Order),
		products: products,
		couriers: couriers,
		users:    users,
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.TrackingNumber == order.TrackingNumber {
			return repository.ErrDuplicateTracking
		}
	}
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range r.orders {
		if existing.ID != order.ID && existing.TrackingNumber == order.TrackingNumber {
			return repository.ErrDuplicateTracking
		}
	}
	clone := *order
	clone.UpdatedAt = time.Now()
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrderRepo) GetByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.TrackingNumber == trackingNumber {
			clone := *order
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrderRepo) GetDetailByID(ctx context.Context, id int64) (*domain.OrderDetail, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.toDetail(ctx, order), nil
}

func (r *fakeOrderRepo) toDetail(ctx context.Context, order *domain.Order) *domain.OrderDetail {
	detail := &domain.OrderDetail{Order: *order}
	if r.products != nil {
		if product, err := r.products.GetByID(ctx, order.ProductID); err == nil {
			detail.ProductName = product.Name
			detail.ProductPrice = product.Price
			detail.ProductDescription = product.Description
		}
	}
	if r.couriers != nil {
		if courier, err := r.couriers.GetByID(ctx, order.CourierID); err == nil {
			detail.CourierName = courier.Name
		}
	}
	if r.users != nil {
		if user, err := r.users.GetByID(ctx, order.UserID); err == nil {
			detail.UserName = user.RealName
			detail.UserPhone = user.Phone
		}
	}
	return detail
}

func (r *fakeOrderRepo) ListDetails(ctx context.Context, filter repository.OrderFilter) ([]domain.OrderDetail, int64, error) {
	r.mu.Lock()
	orders := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, order)
	}
	r.mu.Unlock()

	var result []domain.OrderDetail
	for _, order := range orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, *r.toDetail(ctx, order))
	}
	return result, int64(len(result)), nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) CountByProduct(_ context.Context, productID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, order := range r.orders {
		if order.ProductID == productID {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) CountByCourier(_ context.Context, courierID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, order := range r.orders {
		if order.CourierID == courierID {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) CountByStatus(_ context.Context) (map[domain.OrderStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.OrderStatus]int64)
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

type fakeAdminLogRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.AdminLog
}

func newFakeAdminLogRepo() *fakeAdminLogRepo {
	return &fakeAdminLogRepo{}
}

func (r *fakeAdminLogRepo) Create(_ context.Context, entry *domain.AdminLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAdminLogRepo) ListRecent(_ context.Context, limit, _ int) ([]domain.AdminLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) < limit {
		limit = len(r.entries)
	}
	result := make([]domain.AdminLog, limit)
	copy(result, r.entries[len(r.entries)-limit:])
	return result, nil
}

// recordingDispatcher captures published events and still invokes subscribers,
// so audit wiring can be asserted end to end.
type recordingDispatcher struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: make(map[events.EventType][]events.EventHandler)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	handlers := append([]events.EventHandler{}, d.handlers[event.Type]...)
	d.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
