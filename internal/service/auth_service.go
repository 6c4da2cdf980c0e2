package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/config"
	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	RealName      string
	Phone         string
	AlipayAccount string
	Password      string
}

// Register creates a new account. Phone and alipay account are globally
// unique; the storage unique indexes are the authoritative guard and the
// pre-checks are fast-path only.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByPhone(ctx, input.Phone); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("phone already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}
	if _, err := s.users.GetByAlipay(ctx, input.AlipayAccount); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("alipay account already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		RealName:      input.RealName,
		Phone:         input.Phone,
		AlipayAccount: input.AlipayAccount,
		PasswordHash:  hash,
		Role:          domain.RoleUser,
		Status:        domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, "", time.Time{}, apperrors.NewConflict("phone already registered", nil)
		case errors.Is(err, repository.ErrDuplicateAlipay):
			return nil, "", time.Time{}, apperrors.NewConflict("alipay account already registered", nil)
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates by phone and password.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid phone or password")
		}
		return nil, "", time.Time{}, err
	}
	if !user.IsActive() {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid phone or password")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	user.LastLoginAt = &now

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CheckDuplicate reports whether a phone or alipay account is already taken,
// optionally excluding a user id (for profile edits).
func (s *AuthService) CheckDuplicate(ctx context.Context, phone, alipay string, excludeUserID *int64) (bool, string, error) {
	lookup := func(get func() (*domain.User, error)) (bool, error) {
		existing, err := get()
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		if excludeUserID != nil && existing.ID == *excludeUserID {
			return false, nil
		}
		return true, nil
	}

	if phone != "" {
		taken, err := lookup(func() (*domain.User, error) { return s.users.GetByPhone(ctx, phone) })
		return taken, "phone", err
	}
	if alipay != "" {
		taken, err := lookup(func() (*domain.User, error) { return s.users.GetByAlipay(ctx, alipay) })
		return taken, "alipayAccount", err
	}
	return false, "", apperrors.NewValidationError("phone or alipayAccount parameter is required", nil)
}

// ProfileUpdateInput carries optional profile fields.
type ProfileUpdateInput struct {
	RealName      *string
	AlipayAccount *string
}

// UpdateProfile lets a user edit their own profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error) {
	if input.RealName == nil && input.AlipayAccount == nil {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
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
		taken, _, err := s.CheckDuplicate(ctx, "", *input.AlipayAccount, &userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.NewConflict("alipay account already in use", nil)
		}
		user.AlipayAccount = *input.AlipayAccount
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateAlipay) {
			return nil, apperrors.NewConflict("alipay account already in use", nil)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
