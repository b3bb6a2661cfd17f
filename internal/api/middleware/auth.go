package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

const (
	// TokenCookie is the cookie carrying the session token.
	TokenCookie = "token"
	// UserIDKey is the echo context key holding the authenticated subject id.
	UserIDKey = "user_id"
)

// Authenticate verifies the session token and stores the subject id in the
// context. The cookie wins over the Authorization header when both are sent.
func Authenticate(codec ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return domain.ErrMissingToken
			}

			userID, err := codec.Verify(token)
			if err != nil {
				return domain.ErrUnauthorized
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserID returns the subject id set by Authenticate, or "".
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}
