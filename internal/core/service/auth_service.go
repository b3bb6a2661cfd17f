package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/pkg/metrics"
)

const (
	passwordCost            = 10
	defaultChallengeTimeout = 5 * time.Second
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash is compared against when the email is unknown so that
// both failure paths cost one bcrypt comparison.
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unused-password-placeholder"), passwordCost)
	})
	return dummyHash
}

// AuthService implements registration, login and account administration.
type AuthService struct {
	users            ports.UserRepository
	tokens           ports.TokenCodec
	challenge        ports.ChallengeVerifier
	challengeTimeout time.Duration
	log              zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenCodec,
	challenge ports.ChallengeVerifier,
	challengeTimeout time.Duration,
	log zerolog.Logger,
) *AuthService {
	if challengeTimeout <= 0 {
		challengeTimeout = defaultChallengeTimeout
	}
	return &AuthService{
		users:            users,
		tokens:           tokens,
		challenge:        challenge,
		challengeTimeout: challengeTimeout,
		log:              log,
	}
}

// Register creates a client account. Callers cannot choose the role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if err := domain.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, in.Name, in.Email, in.Password, domain.RoleClient)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	return &ports.AuthResult{Identity: user.Identity(), Token: token}, nil
}

// Login checks the challenge response first, then the credentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	if strings.TrimSpace(in.ChallengeResponse) == "" {
		metrics.LoginsTotal.WithLabelValues("missing_challenge").Inc()
		return nil, domain.ErrMissingChallenge
	}

	if err := s.verifyChallenge(ctx, in.ChallengeResponse); err != nil {
		metrics.LoginsTotal.WithLabelValues("challenge_failed").Inc()
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(in.Email))
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(), []byte(in.Password))
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.AuthResult{Identity: user.Identity(), Token: token}, nil
}

func (s *AuthService) verifyChallenge(ctx context.Context, response string) error {
	ctx, cancel := context.WithTimeout(ctx, s.challengeTimeout)
	defer cancel()

	ok, err := s.challenge.Verify(ctx, response)
	if err != nil {
		s.log.Warn().Err(err).Msg("challenge verification unavailable")
		return domain.ErrChallengeFailed
	}
	if !ok {
		return domain.ErrChallengeFailed
	}
	return nil
}

// Profile returns the identity of userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	id := user.Identity()
	return &id, nil
}

// CreateAccount creates an account with an explicit role. It is not exposed over HTTP.
func (s *AuthService) CreateAccount(ctx context.Context, in ports.CreateAccountInput) (*domain.Identity, error) {
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if err := domain.CheckPassword(in.Password); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("account created")
	id := user.Identity()
	return &id, nil
}

// SetRole changes the role of the account registered under email.
func (s *AuthService) SetRole(ctx context.Context, email string, role domain.Role) (*domain.Identity, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.users.UpdateRole(ctx, domain.NormalizeEmail(email), role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("role updated")
	id := user.Identity()
	return &id, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is enforced by the store's unique index on email.
	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
