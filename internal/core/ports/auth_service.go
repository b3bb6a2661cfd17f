package ports

import (
	"context"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// RegisterInput is the self-registration payload. There is no role field.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries credentials and the human-verification response.
type LoginInput struct {
	Email             string
	Password          string
	ChallengeResponse string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Identity domain.Identity
	Token    string
}

// CreateAccountInput is used by administrative tooling.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.Identity, error)
	CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Identity, error)
	SetRole(ctx context.Context, email string, role domain.Role) (*domain.Identity, error)
}

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(subjectID string) (string, error)
	// Verify returns the subject id or domain.ErrInvalidToken.
	Verify(token string) (string, error)
}

// ChallengeVerifier checks a human-verification response with an external service.
type ChallengeVerifier interface {
	Verify(ctx context.Context, response string) (bool, error)
}
