package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/api/middleware"
	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create places an order for the caller. Prices come from the catalog.
//
// @Summary      Place order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Order"
// @Success      201   {object}  orderCreatedResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /api/pedidos [post]
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPayload
	}
	if len(req.Items) == 0 {
		return domain.ErrEmptyOrder
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.orders.Place(c.Request().Context(), toPlaceOrderInput(req, userID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, orderCreatedResponse{Message: "Pedido creado correctamente", Order: order})
}

// ListMine returns the caller's orders, newest first.
//
// @Summary      My orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Order
// @Router       /api/pedidos/mis-pedidos [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListMine(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilOrders(orders))
}

// ListAll returns every order, newest first.
//
// @Summary      All orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Order
// @Failure      403  {object}  ErrorResponse
// @Router       /api/pedidos [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orders.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNilOrders(orders))
}

// UpdateStatus moves an order along its fulfilment flow.
//
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Order ID"
// @Param        body  body      updateOrderStatusRequest  true  "New status"
// @Success      200   {object}  domain.Order
// @Failure      404   {object}  ErrorResponse
// @Failure      422   {object}  ErrorResponse
// @Router       /api/pedidos/{id}/estado [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.Request().Context(), middleware.UserID(c), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdatePayment sets the payment status.
//
// @Summary      Update payment status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Order ID"
// @Param        body  body      updatePaymentRequest  true  "Payment status"
// @Success      200   {object}  domain.Order
// @Failure      404   {object}  ErrorResponse
// @Router       /api/pedidos/{id}/pago [put]
func (h *OrderHandler) UpdatePayment(c echo.Context) error {
	var req updatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdatePayment(c.Request().Context(), middleware.UserID(c), c.Param("id"), domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func nonNilOrders(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
