package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/choriweb/shop-api/internal/core/domain"
)

type stubUsers struct {
	users map[string]*domain.User
}

func (s *stubUsers) Create(context.Context, *domain.User) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUsers) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) UpdateRole(context.Context, string, domain.Role) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func newStubUsers() *stubUsers {
	return &stubUsers{users: map[string]*domain.User{
		"admin-1":  {ID: "admin-1", Role: domain.RoleAdmin},
		"client-1": {ID: "client-1", Role: domain.RoleClient},
	}}
}

func runRequireAdmin(t *testing.T, userID string) (bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if userID != "" {
		c.Set(UserIDKey, userID)
	}

	called := false
	err := RequireAdmin(newStubUsers())(func(c echo.Context) error {
		called = true
		if c.Get(RoleKey) != domain.RoleAdmin {
			t.Fatalf("role not set in context")
		}
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequireAdmin_Allows(t *testing.T) {
	called, err := runRequireAdmin(t, "admin-1")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireAdmin_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   error
	}{
		{"client role", "client-1", domain.ErrForbidden},
		{"deleted account", "ghost", domain.ErrUserNotFound},
		{"not authenticated", "", domain.ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called, err := runRequireAdmin(t, tc.userID)
			if called {
				t.Fatalf("should not reach next handler")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.Set(UserIDKey, "client-1")

	mw := RequireRole(newStubUsers(), domain.RoleAdmin, domain.RoleClient)
	if err := mw(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("expected client to pass, got %v", err)
	}
}
