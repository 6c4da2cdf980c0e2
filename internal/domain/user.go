package domain

import "time"

// Role distinguishes regular users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// ValidRole reports whether the value belongs to the role enum.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// ValidUserStatus reports whether the value belongs to the status enum.
func ValidUserStatus(s UserStatus) bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User is the domain model for accounts that submit orders.
// Phone and AlipayAccount are globally unique across active and inactive users.
type User struct {
	ID            int64
	RealName      string
	Phone         string
	AlipayAccount string
	PasswordHash  string
	Role          Role
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
