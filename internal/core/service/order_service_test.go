package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

type stubOrderRepo struct {
	orders map[string]*domain.Order
	seq    int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.seq++
	cp := *o
	cp.ID = fmt.Sprintf("order-%d", r.seq)
	r.orders[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if userID == "" || o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, entry domain.StatusHistoryEntry) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, entry)
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) UpdatePayment(_ context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.PaymentStatus = status
	cp := *o
	return &cp, nil
}

type recordingPublisher struct {
	events []domain.OrderEvent
}

func (p *recordingPublisher) Enqueue(ev domain.OrderEvent) {
	p.events = append(p.events, ev)
}

type orderFixture struct {
	svc    *OrderService
	orders *stubOrderRepo
	prods  *stubProductRepo
	pub    *recordingPublisher
	userID string
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	users := newStubUserRepo()
	u, err := users.Create(context.Background(), &domain.User{Name: "Ana", Email: "ana@x.com", Role: domain.RoleClient})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	prods := newStubProductRepo()
	prods.put(domain.Product{ID: "p1", Name: "Chorizo", Price: 10.10, Available: true})
	prods.put(domain.Product{ID: "p2", Name: "Longaniza", Price: 5.25, Available: true})
	prods.put(domain.Product{ID: "off", Name: "Agotado", Price: 1, Available: false})

	orders := newStubOrderRepo()
	pub := &recordingPublisher{}
	return &orderFixture{
		svc:    NewOrderService(orders, prods, users, pub, zerolog.Nop()),
		orders: orders,
		prods:  prods,
		pub:    pub,
		userID: u.ID,
	}
}

func TestOrderService_Place_RecomputesPrices(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.Place(context.Background(), ports.PlaceOrderInput{
		UserID: f.userID,
		Items: []ports.OrderLineInput{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p2", Quantity: 2},
		},
		Address: domain.ShippingAddress{Street: "Juárez", Number: "10", ZipCode: "44100"},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	if order.Total != 40.8 {
		t.Fatalf("expected total 40.8, got %v", order.Total)
	}
	if order.Items[0].Subtotal != 30.3 || order.Items[0].UnitPrice != 10.10 {
		t.Fatalf("unexpected first line: %+v", order.Items[0])
	}
	if order.Status != domain.OrderPending || order.PaymentStatus != domain.PaymentPending {
		t.Fatalf("unexpected initial state: %s / %s", order.Status, order.PaymentStatus)
	}
	if order.PaymentMethod != domain.PaymentCashOnDelivery {
		t.Fatalf("expected default payment method, got %s", order.PaymentMethod)
	}
	if order.Customer.Email != "ana@x.com" || order.Customer.Name != "Ana" {
		t.Fatalf("unexpected customer snapshot: %+v", order.Customer)
	}
	if len(order.StatusHistory) != 1 {
		t.Fatalf("expected initial history entry, got %d", len(order.StatusHistory))
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Kind != domain.OrderEventCreated {
		t.Fatalf("expected created event, got %+v", f.pub.events)
	}
}

func TestOrderService_Place_Errors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ports.PlaceOrderInput
		check func(error) bool
	}{
		{
			name:  "empty",
			input: ports.PlaceOrderInput{UserID: f.userID},
			check: func(err error) bool { return errors.Is(err, domain.ErrEmptyOrder) },
		},
		{
			name:  "unknown product",
			input: ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "zzz", Quantity: 1}}},
			check: func(err error) bool { return errors.Is(err, domain.ErrProductNotFound) },
		},
		{
			name:  "unavailable product",
			input: ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "off", Quantity: 1}}},
			check: func(err error) bool { return errors.Is(err, domain.ErrProductUnavailable) },
		},
		{
			name:  "zero quantity",
			input: ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 0}}},
			check: func(err error) bool { var v *domain.ValidationError; return errors.As(err, &v) },
		},
		{
			name: "bad payment method",
			input: ports.PlaceOrderInput{
				UserID: f.userID, PaymentMethod: "crypto",
				Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 1}},
			},
			check: func(err error) bool { var v *domain.ValidationError; return errors.As(err, &v) },
		},
		{
			name:  "unknown user",
			input: ports.PlaceOrderInput{UserID: "ghost", Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 1}}},
			check: func(err error) bool { return errors.Is(err, domain.ErrUserNotFound) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Place(ctx, tc.input); !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("no order should have been stored, got %d", len(f.orders.orders))
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order, _ := f.svc.Place(ctx, ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 1}}})

	steps := []domain.OrderStatus{domain.OrderPreparing, domain.OrderOnTheWay, domain.OrderDelivered}
	for _, next := range steps {
		updated, err := f.svc.UpdateStatus(ctx, "admin-1", order.ID, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("expected %s, got %s", next, updated.Status)
		}
	}

	if _, err := f.svc.UpdateStatus(ctx, "admin-1", order.ID, domain.OrderCancelled); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from delivered, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, "admin-1", "missing", domain.OrderPreparing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	stored := f.orders.orders[order.ID]
	if len(stored.StatusHistory) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(stored.StatusHistory))
	}
	if got := len(f.pub.events); got != 4 {
		t.Fatalf("expected 4 audit events, got %d", got)
	}
	last := f.pub.events[len(f.pub.events)-1]
	if last.ActorID != "admin-1" || last.Value != string(domain.OrderDelivered) {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestOrderService_CancelFromPending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order, _ := f.svc.Place(ctx, ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "p2", Quantity: 1}}})

	updated, err := f.svc.UpdateStatus(ctx, "admin-1", order.ID, domain.OrderCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != domain.OrderCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if _, err := f.svc.UpdateStatus(ctx, "admin-1", order.ID, domain.OrderPreparing); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from cancelled, got %v", err)
	}
}

func TestOrderService_UpdatePayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order, _ := f.svc.Place(ctx, ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 1}}})

	updated, err := f.svc.UpdatePayment(ctx, "admin-1", order.ID, domain.PaymentPaid)
	if err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if updated.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}

	var verr *domain.ValidationError
	if _, err := f.svc.UpdatePayment(ctx, "admin-1", order.ID, "refunded"); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestOrderService_Lists(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Place(ctx, ports.PlaceOrderInput{UserID: f.userID, Items: []ports.OrderLineInput{{ProductID: "p1", Quantity: 1}}})
	f.orders.orders["foreign"] = &domain.Order{ID: "foreign", UserID: "other", CreatedAt: time.Now()}

	mine, err := f.svc.ListMine(ctx, f.userID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected 1 own order, got %d err=%v", len(mine), err)
	}
	all, err := f.svc.ListAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d err=%v", len(all), err)
	}
}
