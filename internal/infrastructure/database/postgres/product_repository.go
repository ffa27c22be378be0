package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"gorm.io/gorm"
)

// ProductRepository implements product.Repository
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a catalog repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&product.Product{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+likeEscaper.Replace(search)+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count products")
	}

	var products []product.Product
	err := query.Order("name ASC").Order("id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list products")
	}
	return products, total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	var p product.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, product.ErrProductNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}
	return &p, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []product.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find products")
	}
	return products, nil
}

func (r *ProductRepository) FindRelated(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]product.Product, error) {
	var products []product.Product
	err := r.db.WithContext(ctx).
		Where("category = ? AND id <> ?", category, excludeID).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find related products")
	}
	return products, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&product.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	return categories, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&product.Product{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count products")
	}
	return n, nil
}
