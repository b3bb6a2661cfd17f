package ports

import (
	"context"
	"errors"
	"io"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// CategoryRepository persists categories. Create and Update return
// domain.ErrCategoryExists on a duplicate name.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error)
	Update(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	OnlyAvailable bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// ErrCacheMiss is returned by ProductCache.Get when nothing is stored under the key.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache stores rendered product listings.
type ProductCache interface {
	Get(ctx context.Context, key string) ([]*domain.Product, error)
	Set(ctx context.Context, key string, products []*domain.Product) error
	Invalidate(ctx context.Context) error
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CategoryInput creates a category.
type CategoryInput struct {
	Name        string
	Description string
}

// CategoryPatch holds optional category fields; nil means unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
	Active      *bool
}

// ImageInput is an optional uploaded file.
type ImageInput struct {
	Filename string
	Body     io.Reader
}

// ProductInput creates a product.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Available   *bool
	CategoryID  string
	ImageURL    string
	Image       *ImageInput
}

// ProductPatch holds optional product fields; nil means unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Available   *bool
	CategoryID  *string
	ImageURL    *string
	Image       *ImageInput
}

type CatalogService interface {
	CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
