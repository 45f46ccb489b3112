package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// UsersHandler exposes account lookups and the password-change flow.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// GetByID handles GET /user/id/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

// GetByUsername handles GET /user/username/:username.
func (h *UsersHandler) GetByUsername(c *fiber.Ctx) error {
	user, err := h.users.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

// RequestPasswordChange handles POST /user/change-password-request.
func (h *UsersHandler) RequestPasswordChange(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	return h.users.RequestPasswordChange(c.UserContext(), principal.UserID)
}

// ChangePassword handles PATCH /user/change-password/:token.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password required")
	}

	err := h.users.ChangePassword(c.UserContext(), principal.UserID, c.Params("token"), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return apperrors.NewUnprocessable("CHANGE_PASSWORD_TOKEN_INVALID", "change password token is invalid")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Active:   user.Active,
	}
}
