package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID string
	User   *domain.User
}

// AuthMiddleware validates bearer access tokens and loads the caller.
type AuthMiddleware struct {
	codec *Codec
	users repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(codec *Codec, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, users: users}
}

// Handle enforces authentication for protected routes. Only access tokens
// pass; the other kinds are rejected without revealing what they were.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	payload, err := m.codec.Decode(parts[1], TokenAccess)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return apperrors.NewUnauthorized("access token expired")
		}
		return apperrors.NewUnauthorized("access token invalid")
	}

	user, err := m.users.GetByID(c.UserContext(), payload.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{UserID: user.ID, User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
