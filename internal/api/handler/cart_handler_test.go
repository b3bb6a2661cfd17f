package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/choriweb/shop-api/internal/api/middleware"
	"github.com/choriweb/shop-api/internal/core/domain"
)

type stubCartService struct {
	carts map[string]*domain.Cart
	added []int
}

func newStubCartService() *stubCartService {
	return &stubCartService{carts: make(map[string]*domain.Cart)}
}

func (s *stubCartService) cart(userID string) *domain.Cart {
	c, ok := s.carts[userID]
	if !ok {
		c = &domain.Cart{UserID: userID}
		s.carts[userID] = c
	}
	return c
}

func (s *stubCartService) Get(_ context.Context, userID string) (*domain.Cart, error) {
	return s.cart(userID), nil
}

func (s *stubCartService) Add(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if productID == "missing" {
		return nil, domain.ErrProductNotFound
	}
	s.added = append(s.added, quantity)
	c := s.cart(userID)
	c.Items = append(c.Items, domain.CartItem{ProductID: productID, Name: "Chorizo", Price: 12.5, Quantity: quantity})
	return c, nil
}

func (s *stubCartService) Remove(_ context.Context, userID, productID string) (*domain.Cart, error) {
	c := s.cart(userID)
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return c, nil
}

func (s *stubCartService) Clear(_ context.Context, userID string) (*domain.Cart, error) {
	c := s.cart(userID)
	c.Items = nil
	return c, nil
}

func TestCartHandler_Get_EmptyCart(t *testing.T) {
	h := NewCartHandler(newStubCartService())

	c, rec := jsonRequest(newTestEcho(), http.MethodGet, "/api/carrito", "")
	c.Set(middleware.UserIDKey, "u1")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.UserID != "u1" || resp.Items == nil || len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("unexpected cart: %+v", resp)
	}
}

func TestCartHandler_Add_ComputesTotal(t *testing.T) {
	svc := newStubCartService()
	h := NewCartHandler(svc)

	c, rec := jsonRequest(newTestEcho(), http.MethodPost, "/api/carrito/agregar", `{"product_id":"p1","quantity":3}`)
	c.Set(middleware.UserIDKey, "u1")
	if err := h.Add(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 37.5 {
		t.Fatalf("expected total 37.5, got %v", resp.Total)
	}
}

func TestCartHandler_Add_DefaultsQuantityInService(t *testing.T) {
	svc := newStubCartService()
	h := NewCartHandler(svc)

	c, _ := jsonRequest(newTestEcho(), http.MethodPost, "/api/carrito/agregar", `{"product_id":"p1"}`)
	c.Set(middleware.UserIDKey, "u1")
	if err := h.Add(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(svc.added) != 1 || svc.added[0] != 0 {
		t.Fatalf("omitted quantity should reach the service as 0: %v", svc.added)
	}
}

func TestCartHandler_Add_MissingProduct(t *testing.T) {
	h := NewCartHandler(newStubCartService())

	c, _ := jsonRequest(newTestEcho(), http.MethodPost, "/api/carrito/agregar", `{"quantity":1}`)
	c.Set(middleware.UserIDKey, "u1")
	err := h.Add(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Messages[0] != "El producto es obligatorio" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCartHandler_Add_UnknownProduct(t *testing.T) {
	h := NewCartHandler(newStubCartService())

	c, _ := jsonRequest(newTestEcho(), http.MethodPost, "/api/carrito/agregar", `{"product_id":"missing"}`)
	c.Set(middleware.UserIDKey, "u1")
	if err := h.Add(c); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	svc := newStubCartService()
	svc.cart("u1").Items = []domain.CartItem{
		{ProductID: "p1", Price: 1, Quantity: 1},
		{ProductID: "p2", Price: 2, Quantity: 1},
	}
	h := NewCartHandler(svc)
	e := newTestEcho()

	c, _ := jsonRequest(e, http.MethodDelete, "/", "")
	c.Set(middleware.UserIDKey, "u1")
	c.SetParamNames("productId")
	c.SetParamValues("p1")
	if err := h.Remove(c); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if items := svc.cart("u1").Items; len(items) != 1 || items[0].ProductID != "p2" {
		t.Fatalf("unexpected items after remove: %+v", items)
	}

	c, _ = jsonRequest(e, http.MethodDelete, "/api/carrito/limpiar", "")
	c.Set(middleware.UserIDKey, "u1")
	if err := h.Clear(c); err != nil {
		t.Fatalf("clear error: %v", err)
	}
	if len(svc.cart("u1").Items) != 0 {
		t.Fatal("cart should be empty")
	}
}

func TestCartHandler_RequiresSubject(t *testing.T) {
	h := NewCartHandler(newStubCartService())

	c, _ := jsonRequest(newTestEcho(), http.MethodGet, "/api/carrito", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
