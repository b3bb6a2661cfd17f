package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

type stubAccounts struct {
	created []ports.CreateAccountInput
	roles   map[string]domain.Role
	err     error
}

func (s *stubAccounts) Register(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
	return nil, errors.New("not used")
}

func (s *stubAccounts) Login(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
	return nil, errors.New("not used")
}

func (s *stubAccounts) Profile(context.Context, string) (*domain.Identity, error) {
	return nil, errors.New("not used")
}

func (s *stubAccounts) CreateAccount(_ context.Context, in ports.CreateAccountInput) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, in)
	return &domain.Identity{ID: "u1", Email: in.Email, Role: in.Role}, nil
}

func (s *stubAccounts) SetRole(_ context.Context, email string, role domain.Role) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.roles[email] = role
	return &domain.Identity{Email: email, Role: role}, nil
}

type harness struct {
	svc    *stubAccounts
	out    bytes.Buffer
	opened int
	closed int
	input  [][]byte
}

func newHarness() *harness {
	return &harness{svc: &stubAccounts{roles: map[string]domain.Role{}}}
}

func (h *harness) run(args ...string) error {
	a := &app{
		open: func(context.Context) (ports.AuthService, func(), error) {
			h.opened++
			return h.svc, func() { h.closed++ }, nil
		},
		out: &h.out,
		readPassword: func() ([]byte, error) {
			if len(h.input) == 0 {
				return nil, errors.New("no input")
			}
			next := h.input[0]
			h.input = h.input[1:]
			return next, nil
		},
	}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetErr(&h.out)
	return root.Execute()
}

func TestCreateAdmin_WithFlagPassword(t *testing.T) {
	h := newHarness()
	if err := h.run("create-admin", "--name", "Root", "--email", "root@example.com", "--password", "Str0ng!pass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.svc.created) != 1 {
		t.Fatalf("expected one account, got %d", len(h.svc.created))
	}
	in := h.svc.created[0]
	if in.Role != domain.RoleAdmin || in.Email != "root@example.com" || in.Password != "Str0ng!pass" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if h.opened != 1 || h.closed != 1 {
		t.Fatalf("stores should be opened and closed once: %d/%d", h.opened, h.closed)
	}
	if !strings.Contains(h.out.String(), "Admin created.") {
		t.Fatalf("unexpected output: %s", h.out.String())
	}
}

func TestCreateAdmin_PromptsForPassword(t *testing.T) {
	h := newHarness()
	h.input = [][]byte{[]byte("Str0ng!pass"), []byte("Str0ng!pass")}

	if err := h.run("create-admin", "--name", "Root", "--email", "root@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.svc.created[0].Password != "Str0ng!pass" {
		t.Fatalf("prompted password not used: %+v", h.svc.created[0])
	}
}

func TestCreateAdmin_PromptMismatch(t *testing.T) {
	h := newHarness()
	h.input = [][]byte{[]byte("Str0ng!pass"), []byte("other")}

	err := h.run("create-admin", "--name", "Root", "--email", "root@example.com")
	if !errors.Is(err, errPasswordMismatch) {
		t.Fatalf("expected errPasswordMismatch, got %v", err)
	}
	if h.opened != 0 {
		t.Fatal("stores should not be opened when the prompt fails")
	}
}

func TestCreateAdmin_WeakPasswordListsRules(t *testing.T) {
	h := newHarness()
	h.svc.err = domain.NewValidationError("La contraseña debe tener al menos 8 caracteres", "La contraseña debe tener al menos un número")

	err := h.run("create-admin", "--name", "Root", "--email", "root@example.com", "--password", "weak")
	if err == nil || !strings.Contains(err.Error(), "al menos un número") {
		t.Fatalf("expected rule messages, got %v", err)
	}
}

func TestCreateAdmin_RequiresFlags(t *testing.T) {
	h := newHarness()
	if err := h.run("create-admin", "--name", "Root"); err == nil {
		t.Fatal("expected missing --email error")
	}
	if h.opened != 0 {
		t.Fatal("stores should not be opened")
	}
}

func TestSetRole(t *testing.T) {
	h := newHarness()
	if err := h.run("set-role", "--email", "ana@example.com", "--role", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.svc.roles["ana@example.com"] != domain.RoleAdmin {
		t.Fatalf("role not updated: %+v", h.svc.roles)
	}
	if !strings.Contains(h.out.String(), "ana@example.com is now admin.") {
		t.Fatalf("unexpected output: %s", h.out.String())
	}
}

func TestSetRole_InvalidRole(t *testing.T) {
	h := newHarness()
	if err := h.run("set-role", "--email", "ana@example.com", "--role", "root"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if h.opened != 0 {
		t.Fatal("stores should not be opened for an invalid role")
	}
}

func TestSetRole_UnknownUser(t *testing.T) {
	h := newHarness()
	h.svc.err = domain.ErrUserNotFound

	err := h.run("set-role", "--email", "ghost@example.com", "--role", "client")
	if err == nil || err.Error() != "no account with that email" {
		t.Fatalf("unexpected error: %v", err)
	}
}
