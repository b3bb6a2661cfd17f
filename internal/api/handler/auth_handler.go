package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/api/middleware"
	"github.com/choriweb/shop-api/internal/core/ports"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	// Secure marks the cookie Secure with SameSite=None for cross-site
	// frontends. Otherwise SameSite=Lax is used.
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a client account and opens a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  identityResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.Token)
	return c.JSON(http.StatusCreated, toIdentityResponse(res.Identity, res.Token))
}

// Login verifies credentials and the reCAPTCHA response.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  identityResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:             req.Email,
		Password:          req.Password,
		ChallengeResponse: req.Captcha,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, toIdentityResponse(res.Identity, res.Token))
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := h.baseCookie()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, messageResponse{Message: "Sesión cerrada correctamente"})
}

// Profile returns the authenticated user.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toIdentityResponse(*id, ""))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	cookie := h.baseCookie()
	cookie.Value = token
	if h.cookie.TTL > 0 {
		cookie.MaxAge = int(h.cookie.TTL.Seconds())
		cookie.Expires = time.Now().Add(h.cookie.TTL)
	}
	c.SetCookie(cookie)
}

func (h *AuthHandler) baseCookie() *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookie.Secure {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
