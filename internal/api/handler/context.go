package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/api/middleware"
	"github.com/choriweb/shop-api/internal/core/domain"
)

// currentUserID returns the subject set by the Authenticate middleware. An
// empty value means the route was mounted without it.
func currentUserID(c echo.Context) (string, error) {
	id := middleware.UserID(c)
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the struct rules.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ErrInvalidPayload
	}
	return c.Validate(req)
}
