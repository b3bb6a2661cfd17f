package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// RateLimit limits requests per client IP using store.
func RateLimit(store echomiddleware.RateLimiterStore) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(echo.Context, error) error {
			return domain.ErrTooManyRequests
		},
		DenyHandler: func(echo.Context, string, error) error {
			return domain.ErrTooManyRequests
		},
	})
}
