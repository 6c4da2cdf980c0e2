package dto

import (
	"time"

	"github.com/spec-kit/order-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	RealName      string `json:"real_name"`
	Phone         string `json:"phone"`
	AlipayAccount string `json:"alipay_account"`
	Password      string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse returns the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateProfileRequest payload for self-service profile edits.
type UpdateProfileRequest struct {
	RealName      *string `json:"real_name"`
	AlipayAccount *string `json:"alipay_account"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AdminUpdateUserRequest payload for admin account edits.
type AdminUpdateUserRequest struct {
	RealName      *string `json:"real_name"`
	AlipayAccount *string `json:"alipay_account"`
	Role          *string `json:"role"`
	Status        *string `json:"status"`
}

// UserResponse is the public account representation. The password hash never
// leaves the service layer.
type UserResponse struct {
	ID            int64      `json:"id"`
	RealName      string     `json:"real_name"`
	Phone         string     `json:"phone"`
	AlipayAccount string     `json:"alipay_account"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		RealName:      user.RealName,
		Phone:         user.Phone,
		AlipayAccount: user.AlipayAccount,
		Role:          string(user.Role),
		Status:        string(user.Status),
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
		LastLoginAt:   user.LastLoginAt,
	}
}

// NewUserResponses maps a slice of domain users.
func NewUserResponses(users []domain.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, NewUserResponse(&users[i]))
	}
	return result
}
