package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderOnTheWay  OrderStatus = "on_the_way"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// validTransitions defines the allowed fulfilment transitions.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderOnTheWay, OrderCancelled},
	OrderOnTheWay:  {OrderDelivered},
}

var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks whether the order has been paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentTransfer       PaymentMethod = "transfer"
)

// Customer is a snapshot of the buyer taken when the order is placed.
type Customer struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

// ShippingAddress is the delivery destination.
type ShippingAddress struct {
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number" bson:"number"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	Municipality string `json:"municipality" bson:"municipality"`
	State        string `json:"state" bson:"state"`
	ZipCode      string `json:"zip_code" bson:"zip_code"`
	Phone        string `json:"phone" bson:"phone"`
	References   string `json:"references,omitempty" bson:"references,omitempty"`
}

// OrderItem is a priced order line. UnitPrice comes from the catalog.
type OrderItem struct {
	ProductID string  `json:"product_id" bson:"product_id"`
	Name      string  `json:"name" bson:"name"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	Subtotal  float64 `json:"subtotal" bson:"subtotal"`
}

// StatusHistoryEntry records a single status transition on an order.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// Order is the purchase aggregate.
type Order struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	Customer      Customer             `json:"customer"`
	Items         []OrderItem          `json:"items"`
	Total         float64              `json:"total"`
	Address       ShippingAddress      `json:"address"`
	PaymentMethod PaymentMethod        `json:"payment_method"`
	Status        OrderStatus          `json:"status"`
	PaymentStatus PaymentStatus        `json:"payment_status"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// OrderEventKind distinguishes audit rows.
type OrderEventKind string

const (
	OrderEventCreated OrderEventKind = "created"
	OrderEventStatus  OrderEventKind = "status"
	OrderEventPayment OrderEventKind = "payment"
)

// OrderEvent is one audit trail entry for an order.
type OrderEvent struct {
	OrderID    string
	Kind       OrderEventKind
	Value      string
	ActorID    string
	RecordedAt time.Time
}
