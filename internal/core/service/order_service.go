package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/pkg/metrics"
)

type OrderService struct {
	orders   ports.OrderRepository
	products ports.ProductRepository
	users    ports.UserRepository
	events   ports.OrderEventPublisher
	log      zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	events ports.OrderEventPublisher,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		events:   events,
		log:      log,
	}
}

// Place creates an order priced from the product store. Client-sent prices
// are never trusted.
func (s *OrderService) Place(ctx context.Context, in ports.PlaceOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentCashOnDelivery
	}
	if method != domain.PaymentCashOnDelivery && method != domain.PaymentTransfer {
		return nil, domain.NewValidationError("El método de pago no es válido")
	}

	ids := make([]string, 0, len(in.Items))
	for _, line := range in.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, domain.NewValidationError("El producto es obligatorio")
		}
		if line.Quantity < 1 {
			return nil, domain.NewValidationError("La cantidad debe ser al menos 1")
		}
		ids = append(ids, line.ProductID)
	}

	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	byID := make(map[string]*domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	var total float64
	for _, line := range in.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
		}
		if !p.Available {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, p.Name)
		}
		subtotal := domain.RoundCents(p.Price * float64(line.Quantity))
		total += subtotal
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
		})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:        user.ID,
		Customer:      domain.Customer{Name: user.Name, Email: user.Email},
		Items:         items,
		Total:         domain.RoundCents(total),
		Address:       in.Address,
		PaymentMethod: method,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		StatusHistory: []domain.StatusHistoryEntry{{Status: domain.OrderPending, Timestamp: now}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to create order")
		return nil, fmt.Errorf("place order: %w", err)
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(method)).Inc()
	s.publish(created.ID, domain.OrderEventCreated, string(created.Status), user.ID, now)
	s.log.Info().Str("order_id", created.ID).Str("user_id", user.ID).Float64("total", created.Total).Msg("order placed")

	return created, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID string) ([]*domain.Order, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	list, err := s.orders.ListByUser(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return list, nil
}

// UpdateStatus applies a fulfilment transition if the state machine allows it.
func (s *OrderService) UpdateStatus(ctx context.Context, actorID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("update order: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, status)
	}

	now := time.Now().UTC()
	updated, err := s.orders.UpdateStatus(ctx, orderID, order.Status, status, domain.StatusHistoryEntry{Status: status, Timestamp: now})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.publish(orderID, domain.OrderEventStatus, string(status), actorID, now)
	return updated, nil
}

func (s *OrderService) UpdatePayment(ctx context.Context, actorID, orderID string, status domain.PaymentStatus) (*domain.Order, error) {
	if status != domain.PaymentPending && status != domain.PaymentPaid {
		return nil, domain.NewValidationError("El estado de pago no es válido")
	}

	updated, err := s.orders.UpdatePayment(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	s.publish(orderID, domain.OrderEventPayment, string(status), actorID, time.Now().UTC())
	return updated, nil
}

func (s *OrderService) publish(orderID string, kind domain.OrderEventKind, value, actorID string, at time.Time) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(domain.OrderEvent{
		OrderID:    orderID,
		Kind:       kind,
		Value:      value,
		ActorID:    actorID,
		RecordedAt: at,
	})
}
