package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, verification, login, and refresh.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required")
	}

	pair, err := h.auth.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Register handles POST /auth/registration.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email, password required")
	}

	if err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusCreated)
}

// VerifyEmail handles GET /auth/verify-email/:token.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	regToken := c.Params("token")
	if regToken == "" {
		return apperrors.NewValidationError("registration token required")
	}

	pair, err := h.auth.VerifyEmail(c.UserContext(), regToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return apperrors.NewUnprocessable("REGISTRATION_TOKEN_INVALID", "registration token is invalid")
		}
		return err
	}

	return c.JSON(dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh handles GET /auth/refresh. The refresh token travels in its own
// header; both tokens are rotated on success.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Get("Refresh-Token")
	if refreshToken == "" {
		return apperrors.NewUnauthorized("refresh token header missing")
	}

	pair, err := h.auth.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		return err
	}

	return c.JSON(dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
