package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kunwarabhi7/car-rental/internal/domain"
	"github.com/kunwarabhi7/car-rental/internal/users"
)

// Middleware verifies the bearer access token and attaches the resolved
// user to the request.
//
// Status codes are deliberately asymmetric: a missing header is 401 (no
// credential supplied), a bad or expired token is 403 (credential
// supplied but invalid), and a valid token whose user no longer exists
// is 404.
func Middleware(secret []byte, repo users.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Access denied, no token provided")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Access denied, no token provided")
		}

		claims, err := ParseAccessToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Invalid or expired token")
		}

		user, err := repo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "User not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		c.Locals("user", user)
		c.Locals("user_id", user.ID)
		return c.Next()
	}
}

// UserFromContext returns the user attached by Middleware, or nil when
// the route was not protected.
func UserFromContext(c *fiber.Ctx) *domain.User {
	if u, ok := c.Locals("user").(*domain.User); ok {
		return u
	}
	return nil
}
