package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
)

type stubUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[stored.Email] = cloneUser(stored)
	return stored, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateRole(_ context.Context, email string, role domain.Role) (*domain.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

type stubChallenge struct {
	ok    bool
	err   error
	calls int
	sawDL bool
}

func (c *stubChallenge) Verify(ctx context.Context, _ string) (bool, error) {
	c.calls++
	_, c.sawDL = ctx.Deadline()
	return c.ok, c.err
}

func newTestAuthService(t *testing.T, challenge *stubChallenge) (*AuthService, *stubUserRepo, *TokenCodec) {
	t.Helper()
	repo := newStubUserRepo()
	codec, err := NewTokenCodec("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return NewAuthService(repo, codec, challenge, time.Second, zerolog.Nop()), repo, codec
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo, codec := newTestAuthService(t, &stubChallenge{ok: true})

	res, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: " Ana ", Email: "Ana@X.com", Password: "Abcdef1!",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Identity.Role != domain.RoleClient {
		t.Fatalf("expected role client, got %s", res.Identity.Role)
	}
	if res.Identity.Email != "ana@x.com" || res.Identity.Name != "Ana" {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}
	if !res.Identity.Active {
		t.Fatalf("expected new account to be active")
	}

	stored := repo.users["ana@x.com"]
	if stored.PasswordHash == "Abcdef1!" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Abcdef1!")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(stored.PasswordHash)); cost != passwordCost {
		t.Fatalf("expected bcrypt cost %d, got %d", passwordCost, cost)
	}

	id, err := codec.Verify(res.Token)
	if err != nil || id != res.Identity.ID {
		t.Fatalf("token does not resolve to new user: id=%q err=%v", id, err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, repo, _ := newTestAuthService(t, &stubChallenge{ok: true})

	in := ports.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "Abcdef1!"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	in.Email = "BOB@Example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(repo.users))
	}
}

func TestAuthService_Register_RejectsPasswordOverBcryptLimit(t *testing.T) {
	svc, repo, _ := newTestAuthService(t, &stubChallenge{ok: true})

	long := "Aa1!" + strings.Repeat("x", domain.PasswordMaxBytes)
	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Long", Email: "long@example.com", Password: long})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T: %v", err, err)
	}
	if len(verr.Messages) != 1 || verr.Messages[0] != "La contraseña no puede superar los 72 bytes" {
		t.Fatalf("unexpected messages: %v", verr.Messages)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no account should be stored")
	}
}

func TestAuthService_Register_RejectsWeakPassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(t, &stubChallenge{ok: true})

	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "Weak", Email: "weak@example.com", Password: "weak"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %T: %v", err, err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no account should be stored")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	challenge := &stubChallenge{ok: true}
	svc, _, _ := newTestAuthService(t, challenge)

	reg, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "Carol", Email: "carol@example.com", Password: "Abcdef1!"})

	res, err := svc.Login(context.Background(), ports.LoginInput{
		Email: "Carol@example.com", Password: "Abcdef1!", ChallengeResponse: "ok",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.Identity.ID != reg.Identity.ID {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}
	if challenge.calls != 1 || !challenge.sawDL {
		t.Fatalf("expected one challenge call with deadline, calls=%d deadline=%v", challenge.calls, challenge.sawDL)
	}
}

func TestAuthService_Login_CredentialErrorsAreIdentical(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &stubChallenge{ok: true})
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Dave", Email: "dave@example.com", Password: "Abcdef1!"})

	_, wrongPass := svc.Login(context.Background(), ports.LoginInput{Email: "dave@example.com", Password: "bad", ChallengeResponse: "ok"})
	_, noUser := svc.Login(context.Background(), ports.LoginInput{Email: "ghost@example.com", Password: "bad", ChallengeResponse: "ok"})

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) || !errors.Is(noUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", wrongPass, noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPass.Error(), noUser.Error())
	}
}

func TestAuthService_Login_Challenge(t *testing.T) {
	tests := []struct {
		name      string
		challenge *stubChallenge
		response  string
		want      error
	}{
		{"missing", &stubChallenge{ok: true}, "  ", domain.ErrMissingChallenge},
		{"rejected", &stubChallenge{ok: false}, "bad", domain.ErrChallengeFailed},
		{"unreachable", &stubChallenge{err: errors.New("dial tcp: timeout")}, "tok", domain.ErrChallengeFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestAuthService(t, tc.challenge)
			_, _ = svc.Register(context.Background(), ports.RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "Abcdef1!"})

			_, err := svc.Login(context.Background(), ports.LoginInput{
				Email: "eve@example.com", Password: "Abcdef1!", ChallengeResponse: tc.response,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_Login_MissingChallengeSkipsVerifier(t *testing.T) {
	challenge := &stubChallenge{ok: true}
	svc, _, _ := newTestAuthService(t, challenge)

	_, _ = svc.Login(context.Background(), ports.LoginInput{Email: "x@example.com", Password: "p"})
	if challenge.calls != 0 {
		t.Fatalf("verifier should not be called without a response, calls=%d", challenge.calls)
	}
}

func TestAuthService_Profile(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &stubChallenge{ok: true})
	reg, _ := svc.Register(context.Background(), ports.RegisterInput{Name: "Fay", Email: "fay@example.com", Password: "Abcdef1!"})

	id, err := svc.Profile(context.Background(), reg.Identity.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if id.Email != "fay@example.com" {
		t.Fatalf("unexpected profile: %+v", id)
	}

	if _, err := svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_CreateAccountAndSetRole(t *testing.T) {
	svc, _, _ := newTestAuthService(t, &stubChallenge{ok: true})
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, ports.CreateAccountInput{Name: "Root", Email: "root@example.com", Password: "weak", Role: domain.RoleAdmin}); err == nil {
		t.Fatalf("expected weak password to be rejected")
	}

	admin, err := svc.CreateAccount(ctx, ports.CreateAccountInput{Name: "Root", Email: "root@example.com", Password: "Str0ng!pw", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	demoted, err := svc.SetRole(ctx, "ROOT@example.com", domain.RoleClient)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if demoted.Role != domain.RoleClient {
		t.Fatalf("expected client role, got %s", demoted.Role)
	}

	if _, err := svc.SetRole(ctx, "root@example.com", domain.Role("owner")); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
