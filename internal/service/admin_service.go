package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AdminService covers admin-only account management and system stats.
type AdminService struct {
	users      repository.UserRepository
	orders     repository.OrderRepository
	products   repository.ProductRepository
	couriers   repository.CourierRepository
	adminLogs  repository.AdminLogRepository
	dispatcher events.Dispatcher
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	UserRepo     repository.UserRepository
	OrderRepo    repository.OrderRepository
	ProductRepo  repository.ProductRepository
	CourierRepo  repository.CourierRepository
	AdminLogRepo repository.AdminLogRepository
	Dispatcher   events.Dispatcher
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:      deps.UserRepo,
		orders:     deps.OrderRepo,
		products:   deps.ProductRepo,
		couriers:   deps.CourierRepo,
		adminLogs:  deps.AdminLogRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListUsers returns accounts matching the filter.
func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	return s.users.List(ctx, filter)
}

// GetUser fetches a single account.
func (s *AdminService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}
	return user, nil
}

// UserUpdateInput carries optional admin-editable account fields.
type UserUpdateInput struct {
	RealName      *string
	AlipayAccount *string
	Role          *string
	Status        *string
}

// UpdateUser applies a partial account update. Deactivating a user takes
// effect on their next request because the auth middleware re-checks status.
func (s *AdminService) UpdateUser(ctx context.Context, caller *domain.User, id int64, input UserUpdateInput) (*domain.User, error) {
	if input.RealName == nil && input.AlipayAccount == nil && input.Role == nil && input.Status == nil {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, err
	}

	if input.RealName != nil {
		user.RealName = *input.RealName
	}
	if input.AlipayAccount != nil && *input.AlipayAccount != user.AlipayAccount {
		if existing, err := s.users.GetByAlipay(ctx, *input.AlipayAccount); err == nil && existing.ID != id {
			return nil, apperrors.NewConflict("alipay account already in use", nil)
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		user.AlipayAccount = *input.AlipayAccount
	}
	if input.Role != nil {
		role := domain.Role(*input.Role)
		if !domain.ValidRole(role) {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		user.Role = role
	}
	if input.Status != nil {
		status := domain.UserStatus(*input.Status)
		if !domain.ValidUserStatus(status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		user.Status = status
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateAlipay) {
			return nil, apperrors.NewConflict("alipay account already in use", nil)
		}
		return nil, err
	}

	s.publish(ctx, caller, events.EventUserUpdated, "user", id, map[string]any{
		"role":   string(user.Role),
		"status": string(user.Status),
	})
	return user, nil
}

// DeleteUser removes an account and, via cascade, its orders. Admins cannot
// delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	if caller.ID == id {
		return apperrors.NewValidationError("cannot delete your own account", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return err
	}
	s.publish(ctx, caller, events.EventUserDeleted, "user", id, nil)
	return nil
}

// Stats aggregates system-wide counters.
type Stats struct {
	Users    StatusCounts     `json:"users"`
	Orders   map[string]int64 `json:"orders"`
	Products StatusCounts     `json:"products"`
	Couriers StatusCounts     `json:"couriers"`
}

// StatusCounts holds a total and its active subset.
type StatusCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// Stats computes dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	userCounts, err := s.users.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	orderCounts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	productTotal, productActive, err := s.products.Counts(ctx)
	if err != nil {
		return nil, err
	}
	courierTotal, courierActive, err := s.couriers.Counts(ctx)
	if err != nil {
		return nil, err
	}

	var userTotal int64
	for _, n := range userCounts {
		userTotal += n
	}
	orders := make(map[string]int64, len(orderCounts))
	for status, n := range orderCounts {
		orders[string(status)] = n
	}

	return &Stats{
		Users:    StatusCounts{Total: userTotal, Active: userCounts[domain.UserStatusActive]},
		Orders:   orders,
		Products: StatusCounts{Total: productTotal, Active: productActive},
		Couriers: StatusCounts{Total: courierTotal, Active: courierActive},
	}, nil
}

// RecentLogs lists the latest audit entries.
func (s *AdminService) RecentLogs(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.adminLogs.ListRecent(ctx, limit, offset)
}

func (s *AdminService) publish(ctx context.Context, caller *domain.User, eventType events.EventType, targetType string, targetID int64, details map[string]any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Actor:      events.Actor{UserID: caller.ID, Role: caller.Role},
		TargetType: targetType,
		TargetID:   &targetID,
		Details:    details,
		Timestamp:  time.Now(),
	}
	_ = s.dispatcher.Publish(ctx, event)
}
