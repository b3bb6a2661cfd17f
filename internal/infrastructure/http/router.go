package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/choriweb/shop-api/internal/infrastructure/http/handlers"
)

// RegisterOperational mounts the routes that sit outside the API surface:
// banner, probes, Prometheus scrape endpoint and the Swagger UI.
func RegisterOperational(e *echo.Echo, checks map[string]handlers.Checker) {
	health := handlers.NewHealthHandler(checks)

	e.GET("/", health.Root)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
