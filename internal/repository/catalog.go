package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grillhouse/internal/models"
)

// CatalogReader resolves purchasable products.
type CatalogReader interface {
	// ActiveProductsByIDs returns the active products among ids, in no particular order.
	ActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Catalog is the gorm-backed CatalogReader plus the menu queries.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog constructs Catalog over db, which may be a transaction.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (r *Catalog) ActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	return products, err
}

// CategoriesWithProducts returns every category with its active products.
func (r *Catalog) CategoriesWithProducts(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("name asc")
		}).
		Order("created_at asc").
		Find(&categories).Error
	return categories, err
}

// ProductByID returns a single active product.
func (r *Catalog) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
