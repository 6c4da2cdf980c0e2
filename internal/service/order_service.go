package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

const (
	minOrderQuantity  = 1
	maxOrderQuantity  = 999
	minTrackingLength = 5
	maxTrackingLength = 50
	maxNotesLength    = 200
)

// OrderService coordinates the order lifecycle: creation invariants, price
// snapshotting, tracking-number uniqueness and status transitions.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	couriers   repository.CourierRepository
	dispatcher events.Dispatcher
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	CourierRepo repository.CourierRepository
	Dispatcher  events.Dispatcher
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		products:   deps.ProductRepo,
		couriers:   deps.CourierRepo,
		dispatcher: deps.Dispatcher,
	}
}

// OrderCreateInput describes the order creation payload.
type OrderCreateInput struct {
	ProductID      int64
	CourierID      int64
	Quantity       int
	TrackingNumber string
	Notes          string
}

// OrderListFilter describes listing parameters for users and admins.
type OrderListFilter struct {
	UserID      *int64
	Status      *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	SortDesc    bool
	Limit       int
	Offset      int
}

// OrderUpdateInput carries optional admin-updatable fields.
type OrderUpdateInput struct {
	Status         *string
	Quantity       *int
	TrackingNumber *string
	Notes          *string
}

// Create validates inputs against current product and courier state, snapshots
// the product price, enforces tracking-number uniqueness and inserts the order
// in pending state. The unique index on tracking_number is the authoritative
// guard; the pre-check only produces friendlier errors.
func (s *OrderService) Create(ctx context.Context, caller *domain.User, input OrderCreateInput) (*domain.OrderDetail, error) {
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	if details := validateOrderInput(input.Quantity, input.TrackingNumber, input.Notes); len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid order input", details)
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product")
		}
		return nil, err
	}
	if !product.IsActive() {
		return nil, apperrors.NewNotFound("product")
	}

	courier, err := s.couriers.GetByID(ctx, input.CourierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("courier")
		}
		return nil, err
	}
	if !courier.IsActive() {
		return nil, apperrors.NewNotFound("courier")
	}

	if courier.EnforcesLength() && len(input.TrackingNumber) != courier.TrackingLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("tracking number for %s must be %d characters", courier.Name, courier.TrackingLength),
			map[string]any{"tracking_number": fmt.Sprintf("expected length %d", courier.TrackingLength)},
		)
	}

	if err := s.checkTrackingAvailable(ctx, input.TrackingNumber, caller.ID); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:         caller.ID,
		ProductID:      product.ID,
		CourierID:      courier.ID,
		Quantity:       input.Quantity,
		Price:          product.Price,
		TotalAmount:    product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		TrackingNumber: input.TrackingNumber,
		Status:         domain.OrderStatusPending,
		Notes:          strings.TrimSpace(input.Notes),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateTracking) {
			// Lost the race between pre-check and insert; classify against
			// the row that won.
			return nil, s.classifyTrackingConflict(ctx, input.TrackingNumber, caller.ID)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventOrderCreated,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: "order",
		TargetID:   &order.ID,
		Details: map[string]any{
			"tracking_number": order.TrackingNumber,
			"total_amount":    order.TotalAmount.StringFixed(2),
		},
	})

	return s.orders.GetDetailByID(ctx, order.ID)
}

func (s *OrderService) checkTrackingAvailable(ctx context.Context, trackingNumber string, callerID int64) error {
	existing, err := s.orders.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if existing.UserID == callerID {
		return apperrors.NewDuplicateSubmission("you have already submitted this tracking number")
	}
	return apperrors.NewTrackingNumberTaken("tracking number already in use, please check your input")
}

func (s *OrderService) classifyTrackingConflict(ctx context.Context, trackingNumber string, callerID int64) error {
	existing, err := s.orders.GetByTrackingNumber(ctx, trackingNumber)
	if err == nil && existing.UserID == callerID {
		return apperrors.NewDuplicateSubmission("you have already submitted this tracking number")
	}
	return apperrors.NewTrackingNumberTaken("tracking number already in use, please check your input")
}

// GetForCaller fetches an order detail, enforcing self-or-admin access.
func (s *OrderService) GetForCaller(ctx context.Context, caller *domain.User, orderID int64) (*domain.OrderDetail, error) {
	detail, err := s.orders.GetDetailByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, err
	}
	if !caller.IsAdmin() && detail.UserID != caller.ID {
		return nil, apperrors.NewForbidden("cannot access this order")
	}
	return detail, nil
}

// List returns order details matching the filter. Callers other than admins
// are always scoped to their own orders by the handler.
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]domain.OrderDetail, int64, error) {
	repoFilter := repository.OrderFilter{
		UserID:      filter.UserID,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		SortBy:      filter.SortBy,
		SortDesc:    filter.SortDesc,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if filter.Status != nil && *filter.Status != "" {
		status := domain.OrderStatus(*filter.Status)
		if !domain.ValidOrderStatus(status) {
			return nil, 0, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
		}
		repoFilter.Status = &status
	}
	return s.orders.ListDetails(ctx, repoFilter)
}

// CancelAsOwner cancels a pending order on behalf of its owner. Admins may
// cancel any pending order through the same path.
func (s *OrderService) CancelAsOwner(ctx context.Context, caller *domain.User, orderID int64) (*domain.OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID != caller.ID {
		return nil, apperrors.NewForbidden("cannot cancel this order")
	}
	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.NewInvalidTransition("only pending orders can be cancelled")
	}

	order.Status = domain.OrderStatusCancelled
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventOrderCancelled,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: "order",
		TargetID:   &order.ID,
	})

	return s.orders.GetDetailByID(ctx, order.ID)
}

// AdminUpdate applies a partial update. Only supplied fields are written;
// supplying none is a validation error. Status values are validated strictly
// against the enum; admins may move an order between any of the four states.
func (s *OrderService) AdminUpdate(ctx context.Context, caller *domain.User, orderID int64, input OrderUpdateInput) (*domain.OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, err
	}

	if input.Status == nil && input.Quantity == nil && input.TrackingNumber == nil && input.Notes == nil {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	if input.Status != nil {
		status := domain.OrderStatus(*input.Status)
		if !domain.ValidOrderStatus(status) {
			return nil, apperrors.NewValidationError("invalid order status", map[string]any{"status": *input.Status})
		}
		order.Status = status
	}
	if input.Quantity != nil {
		if *input.Quantity < minOrderQuantity || *input.Quantity > maxOrderQuantity {
			return nil, apperrors.NewValidationError("invalid quantity", map[string]any{
				"quantity": fmt.Sprintf("must be between %d and %d", minOrderQuantity, maxOrderQuantity),
			})
		}
		order.Quantity = *input.Quantity
		// Recompute from the snapshot price, never the current catalog price.
		order.TotalAmount = order.Price.Mul(decimal.NewFromInt(int64(*input.Quantity)))
	}
	if input.TrackingNumber != nil {
		tracking := strings.TrimSpace(*input.TrackingNumber)
		if len(tracking) < minTrackingLength || len(tracking) > maxTrackingLength {
			return nil, apperrors.NewValidationError("invalid tracking number", map[string]any{
				"tracking_number": fmt.Sprintf("length must be between %d and %d", minTrackingLength, maxTrackingLength),
			})
		}
		if tracking != order.TrackingNumber {
			if err := s.checkTrackingAvailable(ctx, tracking, order.UserID); err != nil {
				return nil, err
			}
			order.TrackingNumber = tracking
		}
	}
	if input.Notes != nil {
		if len(*input.Notes) > maxNotesLength {
			return nil, apperrors.NewValidationError("invalid notes", map[string]any{
				"notes": fmt.Sprintf("must be at most %d characters", maxNotesLength),
			})
		}
		order.Notes = *input.Notes
	}

	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateTracking) {
			return nil, s.classifyTrackingConflict(ctx, order.TrackingNumber, order.UserID)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventOrderUpdated,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: "order",
		TargetID:   &order.ID,
		Details:    map[string]any{"status": string(order.Status)},
	})

	return s.orders.GetDetailByID(ctx, order.ID)
}

// Delete removes an order permanently. Admin-only, unconditional.
func (s *OrderService) Delete(ctx context.Context, caller *domain.User, orderID int64) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("order")
		}
		return err
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:       events.EventOrderDeleted,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: "order",
		TargetID:   &orderID,
	})
	return nil
}

// CountByStatus exposes order counts for the stats endpoint.
func (s *OrderService) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	return s.orders.CountByStatus(ctx)
}

func validateOrderInput(quantity int, trackingNumber, notes string) map[string]any {
	details := map[string]any{}
	if quantity < minOrderQuantity || quantity > maxOrderQuantity {
		details["quantity"] = fmt.Sprintf("must be between %d and %d", minOrderQuantity, maxOrderQuantity)
	}
	if len(trackingNumber) < minTrackingLength || len(trackingNumber) > maxTrackingLength {
		details["tracking_number"] = fmt.Sprintf("length must be between %d and %d", minTrackingLength, maxTrackingLength)
	}
	if len(notes) > maxNotesLength {
		details["notes"] = fmt.Sprintf("must be at most %d characters", maxNotesLength)
	}
	return details
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
