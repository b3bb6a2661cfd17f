package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/api/handler"
	"github.com/choriweb/shop-api/internal/core/domain"
)

const internalErrorMessage = "Error interno del servidor. Intenta más tarde."

type errorMapping struct {
	err     error
	code    int
	message string
}

// knownErrors maps domain sentinels to the status and message the client sees.
var knownErrors = []errorMapping{
	{domain.ErrEmailTaken, http.StatusBadRequest, "El email ya está registrado"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "Usuario o contraseña incorrectos"},
	{domain.ErrMissingChallenge, http.StatusBadRequest, "Falta validar el reCAPTCHA"},
	{domain.ErrChallengeFailed, http.StatusBadRequest, "Captcha inválido"},
	{domain.ErrCategoryExists, http.StatusBadRequest, "Ya existe una categoría con ese nombre"},
	{domain.ErrEmptyOrder, http.StatusBadRequest, "No hay productos en el pedido"},
	{domain.ErrProductUnavailable, http.StatusBadRequest, "El producto no está disponible"},
	{domain.ErrInvalidPayload, http.StatusBadRequest, "El cuerpo de la solicitud no es válido"},
	{domain.ErrMissingToken, http.StatusUnauthorized, "No autorizado, falta token"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Token inválido o expirado"},
	{domain.ErrForbidden, http.StatusForbidden, "Acceso solo para administradores"},
	{domain.ErrUserNotFound, http.StatusNotFound, "Usuario no encontrado"},
	{domain.ErrCategoryNotFound, http.StatusNotFound, "Categoría no encontrada"},
	{domain.ErrUnknownCategory, http.StatusNotFound, "La categoría seleccionada no existe"},
	{domain.ErrProductNotFound, http.StatusNotFound, "Producto no encontrado"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "Pedido no encontrado"},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "Transición de estado no permitida"},
	{domain.ErrTooManyRequests, http.StatusTooManyRequests, "Demasiados intentos de login. Intenta de nuevo más tarde."},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders every
// failure as {"message": [...]}. Unknown errors are logged and hidden behind
// a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msgs := resolveError(err, log, c)
		_ = c.JSON(code, handler.ErrorResponse{Message: msgs})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, []string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Messages
	}

	for _, m := range knownErrors {
		if errors.Is(err, m.err) {
			return m.code, []string{m.message}
		}
	}

	// Echo's own errors (router 404/405, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, []string{fmt.Sprintf("%v", he.Message)}
	}

	msg := internalErrorMessage
	if errors.Is(err, domain.ErrImageUpload) {
		msg = "Error al subir la imagen del producto"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, []string{msg}
}
