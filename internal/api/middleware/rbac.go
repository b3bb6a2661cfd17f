package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

// RoleKey is the echo context key holding the role resolved by RequireRole.
const RoleKey = "role"

// RequireRole loads the authenticated account and rejects it unless its role
// is one of roles. It must be chained after Authenticate.
func RequireRole(users ports.UserRepository, roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			if userID == "" {
				return domain.ErrUnauthorized
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return err
			}

			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}

			c.Set(RoleKey, user.Role)
			return next(c)
		}
	}
}

// RequireAdmin is RequireRole restricted to administrators.
func RequireAdmin(users ports.UserRepository) echo.MiddlewareFunc {
	return RequireRole(users, domain.RoleAdmin)
}
