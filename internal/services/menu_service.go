package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/logger"
	"github.com/example/grillhouse/internal/metrics"
	"github.com/example/grillhouse/internal/models"
	"github.com/example/grillhouse/internal/redisx"
	"github.com/example/grillhouse/internal/repository"
)

// MenuService reads the public menu through a redis cache.
// A nil or failing redis only costs a database read.
type MenuService struct {
	catalog *repository.Catalog
	rdb     redis.Cmdable
}

// NewMenuService constructs MenuService. rdb may be nil.
func NewMenuService(db *gorm.DB, rdb redis.Cmdable) *MenuService {
	return &MenuService{catalog: repository.NewCatalog(db), rdb: rdb}
}

// Categories returns every category with its active products.
func (s *MenuService) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.cached(ctx, redisx.KeyMenuCategories, &categories) {
		return categories, nil
	}

	categories, err := s.catalog.CategoriesWithProducts(ctx)
	if err != nil {
		return nil, apperr.FromDB(err, "category")
	}
	s.store(ctx, redisx.KeyMenuCategories, categories)
	return categories, nil
}

// Product returns one active product.
func (s *MenuService) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	key := redisx.Key(redisx.KeyMenuProduct, id)

	var product models.Product
	if s.cached(ctx, key, &product) {
		return &product, nil
	}

	found, err := s.catalog.ProductByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "product")
	}
	s.store(ctx, key, found)
	return found, nil
}

func (s *MenuService) cached(ctx context.Context, key string, dest any) bool {
	if s.rdb == nil {
		return false
	}
	hit, err := redisx.GetJSON(ctx, s.rdb, key, dest)
	if err != nil {
		logger.Warn("menu cache read failed", "key", key, "error", err)
	}
	metrics.CacheResult("menu", hit)
	return hit
}

func (s *MenuService) store(ctx context.Context, key string, value any) {
	if s.rdb == nil {
		return
	}
	if err := redisx.SetJSON(ctx, s.rdb, key, value, redisx.TTLMenu); err != nil {
		logger.Warn("menu cache write failed", "key", key, "error", err)
	}
}
