package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallboard-service/internal/api/dto"
	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/service"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// AuthHandler exposes login and the current-account endpoint.
type AuthHandler struct {
	auth *service.AuthService
	now  func() time.Time
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService, now: time.Now}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidFormat("invalid payload", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Code())
	if err != nil {
		return err
	}

	expiresIn := int64(session.ExpiresAt.Sub(h.now()) / time.Second)
	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			User: dto.NewAccountResponse(session.Account),
			Auth: dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, ExpiresIn: max(expiresIn, 0)},
		},
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(principal.Account)})
}
