package ports

import (
	"context"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser returns orders newest first; an empty userID lists all orders.
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	// UpdateStatus sets the status only if the stored status still equals from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, entry domain.StatusHistoryEntry) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error)
}

// OrderEventRepository stores the order audit trail.
type OrderEventRepository interface {
	Insert(ctx context.Context, ev *domain.OrderEvent) error
}

// OrderEventPublisher hands audit events to an asynchronous writer.
type OrderEventPublisher interface {
	Enqueue(ev domain.OrderEvent)
}

// OrderLineInput is a requested product and quantity.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput carries everything needed to create an order.
type PlaceOrderInput struct {
	UserID        string
	Items         []OrderLineInput
	Address       domain.ShippingAddress
	PaymentMethod domain.PaymentMethod
}

type OrderService interface {
	Place(ctx context.Context, in PlaceOrderInput) (*domain.Order, error)
	ListMine(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, actorID, orderID string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePayment(ctx context.Context, actorID, orderID string, status domain.PaymentStatus) (*domain.Order, error)
}
