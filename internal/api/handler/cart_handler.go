package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

type CartHandler struct {
	carts ports.CartService
}

func NewCartHandler(carts ports.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get returns the caller's cart with its computed total.
//
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/carrito [get]
func (h *CartHandler) Get(c echo.Context) error {
	return h.respond(c, func(userID string) (*domain.Cart, error) {
		return h.carts.Get(c.Request().Context(), userID)
	})
}

// Add puts a product in the cart or increases its quantity.
//
// @Summary      Add to cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addToCartRequest  true  "Product and quantity"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/carrito/agregar [post]
func (h *CartHandler) Add(c echo.Context) error {
	var req addToCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(userID string) (*domain.Cart, error) {
		return h.carts.Add(c.Request().Context(), userID, req.ProductID, req.Quantity)
	})
}

// Remove drops one product line from the cart.
//
// @Summary      Remove from cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product ID"
// @Success      200        {object}  cartResponse
// @Router       /api/carrito/items/{productId} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	return h.respond(c, func(userID string) (*domain.Cart, error) {
		return h.carts.Remove(c.Request().Context(), userID, c.Param("productId"))
	})
}

// Clear empties the cart.
//
// @Summary      Clear cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Router       /api/carrito/limpiar [delete]
func (h *CartHandler) Clear(c echo.Context) error {
	return h.respond(c, func(userID string) (*domain.Cart, error) {
		return h.carts.Clear(c.Request().Context(), userID)
	})
}

func (h *CartHandler) respond(c echo.Context, op func(userID string) (*domain.Cart, error)) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cart, err := op(userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}
