package ports

import (
	"context"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
// Create must return domain.ErrEmailTaken when the email is already stored.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
}
