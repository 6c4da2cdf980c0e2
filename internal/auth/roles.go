package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// RequireAdmin ensures the caller carries the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsAdmin() {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}

// CanAccessUser reports whether the caller may read or mutate resources owned
// by the given user. Admins bypass the ownership check.
func CanAccessUser(p *Principal, ownerID int64) bool {
	if p == nil || p.User == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return p.User.ID == ownerID
}
