package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/dto"
	"github.com/spec-kit/order-service/internal/auth"
	"github.com/spec-kit/order-service/internal/service"
	apperrors "github.com/spec-kit/order-service/pkg/util"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	req.RealName = strings.TrimSpace(req.RealName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.AlipayAccount = strings.TrimSpace(req.AlipayAccount)

	details := map[string]any{}
	if req.RealName == "" {
		details["real_name"] = "required"
	}
	if req.Phone == "" {
		details["phone"] = "required"
	}
	if req.AlipayAccount == "" {
		details["alipay_account"] = "required"
	}
	if len(req.Password) < 6 {
		details["password"] = "must be at least 6 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration input", details)
	}

	user, token, exp, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		RealName:      req.RealName,
		Phone:         req.Phone,
		AlipayAccount: req.AlipayAccount,
		Password:      req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Phone == "" || req.Password == "" {
		return apperrors.NewValidationError("phone and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.UserContext(), strings.TrimSpace(req.Phone), req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// CheckDuplicate handles GET /api/auth/check-duplicate. An authenticated
// caller is excluded from the check so profile edits can keep their own
// values.
func (h *AuthHandler) CheckDuplicate(c *fiber.Ctx) error {
	phone := strings.TrimSpace(c.Query("phone"))
	alipay := strings.TrimSpace(c.Query("alipay_account"))

	var excludeID *int64
	if principal, ok := auth.PrincipalFromContext(c); ok {
		excludeID = &principal.User.ID
	}

	taken, field, err := h.auth.CheckDuplicate(c.UserContext(), phone, alipay, excludeID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"field": field,
			"taken": taken,
		},
	})
}
