package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/choriweb/shop-api/internal/core/domain"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/pkg/metrics"
)

const (
	cacheKeyAllProducts       = "products:all"
	cacheKeyAvailableProducts = "products:available"

	// fillTimeout bounds a shared cache fill once it is detached from the
	// request that started it.
	fillTimeout = 10 * time.Second
)

// CatalogService manages categories and products. Product listings are read
// through an optional cache; every write invalidates it.
type CatalogService struct {
	categories ports.CategoryRepository
	products   ports.ProductRepository
	cache      ports.ProductCache
	uploader   ports.ImageUploader
	group      singleflight.Group
	log        zerolog.Logger

	// gen is bumped on every invalidation. A fill only writes the cache if
	// gen did not move while it was reading the store.
	genMu sync.RWMutex
	gen   uint64
}

// NewCatalogService returns a CatalogService. cache and uploader may be nil.
func NewCatalogService(
	categories ports.CategoryRepository,
	products ports.ProductRepository,
	cache ports.ProductCache,
	uploader ports.ImageUploader,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		cache:      cache,
		uploader:   uploader,
		log:        log,
	}
}

// ── Categories ───────────────────────────────────────────────────────────────

func (s *CatalogService) CreateCategory(ctx context.Context, in ports.CategoryInput) (*domain.Category, error) {
	now := time.Now().UTC()
	c := &domain.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.categories.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, patch ports.CategoryPatch) (*domain.Category, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	updated, err := s.categories.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateProduct(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
	category, err := s.requireCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if in.Image != nil {
		if imageURL, err = s.upload(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}

	now := time.Now().UTC()
	p := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       domain.RoundCents(in.Price),
		Available:   available,
		ImageURL:    imageURL,
		CategoryID:  category.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.products.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	created.Category = &domain.CategoryRef{ID: category.ID, Name: category.Name}
	s.invalidate(ctx)

	s.log.Info().Str("product_id", created.ID).Str("category_id", category.ID).Msg("product created")
	return created, nil
}

// ListProducts returns products newest first with their category embedded.
func (s *CatalogService) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	key := cacheKeyAllProducts
	if filter.OnlyAvailable {
		key = cacheKeyAvailableProducts
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		case errors.Is(err, ports.ErrCacheMiss):
			metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
		default:
			metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed, reading store")
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		start := s.generation()
		list, err := s.loadProducts(loadCtx, filter)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.fill(loadCtx, start, key, list)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

func (s *CatalogService) loadProducts(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	list, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if err := s.attachCategories(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategories(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ports.ProductPatch) (*domain.Product, error) {
	if patch.CategoryID != nil {
		if _, err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Price != nil {
		price := domain.RoundCents(*patch.Price)
		patch.Price = &price
	}
	if patch.Image != nil {
		url, err := s.upload(ctx, patch.Image)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &url
	}

	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if err := s.attachCategories(ctx, []*domain.Product{updated}); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) requireCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.FindByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, domain.ErrUnknownCategory
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (s *CatalogService) upload(ctx context.Context, img *ports.ImageInput) (string, error) {
	if s.uploader == nil {
		return "", domain.ErrImageUpload
	}
	url, err := s.uploader.Upload(ctx, img.Filename, img.Body)
	if err != nil {
		s.log.Error().Err(err).Str("filename", img.Filename).Msg("image upload failed")
		return "", fmt.Errorf("%w: %v", domain.ErrImageUpload, err)
	}
	return url, nil
}

// attachCategories embeds {id, name} for each product's category.
func (s *CatalogService) attachCategories(ctx context.Context, list []*domain.Product) error {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, p := range list {
		if p.CategoryID != "" && !seen[p.CategoryID] {
			seen[p.CategoryID] = true
			ids = append(ids, p.CategoryID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cats, err := s.categories.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	byID := make(map[string]*domain.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	for _, p := range list {
		if c, ok := byID[p.CategoryID]; ok {
			p.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name}
		}
	}
	return nil
}

func (s *CatalogService) generation() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

// fill writes list under key unless an invalidation happened after start.
func (s *CatalogService) fill(ctx context.Context, start uint64, key string, list []*domain.Product) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen != start {
		metrics.CatalogCacheTotal.WithLabelValues("stale").Inc()
		return
	}
	if err := s.cache.Set(ctx, key, list); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	s.gen++
	s.genMu.Unlock()
	s.group.Forget(cacheKeyAllProducts)
	s.group.Forget(cacheKeyAvailableProducts)

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
