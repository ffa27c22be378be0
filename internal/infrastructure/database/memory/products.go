package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/cafe-storefront/internal/domain/product"
)

// ProductRepository implements product.Repository
type ProductRepository struct {
	v view
}

// Put inserts or replaces a product. Catalog management is not part of the
// storefront, so this exists for seeding.
func (r *ProductRepository) Put(p product.Product) {
	_ = r.v.read(func(st *state) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		st.products[p.ID] = p
		return nil
	})
}

// SetPrice changes the catalog price of a product
func (r *ProductRepository) SetPrice(id uuid.UUID, price decimal.Decimal) {
	_ = r.v.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			p.Price = price
			st.products[id] = p
		}
		return nil
	})
}

// Delete removes a product from the catalog
func (r *ProductRepository) Delete(id uuid.UUID) {
	_ = r.v.read(func(st *state) error {
		delete(st.products, id)
		return nil
	})
}

func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int64, error) {
	var matched []product.Product
	err := r.v.read(func(st *state) error {
		search := strings.ToLower(filter.Search)
		for _, p := range st.products {
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.Featured != nil && p.IsFeatured != *filter.Featured {
				continue
			}
			matched = append(matched, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	return page(matched, filter.Offset, filter.Limit), total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	var found *product.Product
	err := r.v.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	products := make([]product.Product, 0, len(ids))
	err := r.v.read(func(st *state) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if p, ok := st.products[id]; ok && !seen[id] {
				products = append(products, p)
				seen[id] = true
			}
		}
		return nil
	})
	return products, err
}

func (r *ProductRepository) FindRelated(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]product.Product, error) {
	products, _, err := r.List(ctx, product.ListFilter{Category: category})
	if err != nil {
		return nil, err
	}

	related := make([]product.Product, 0, limit)
	for _, p := range products {
		if p.ID == excludeID {
			continue
		}
		if len(related) == limit {
			break
		}
		related = append(related, p)
	}
	return related, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.v.read(func(st *state) error {
		seen := make(map[string]bool)
		for _, p := range st.products {
			if p.Category != "" && !seen[p.Category] {
				seen[p.Category] = true
				categories = append(categories, p.Category)
			}
		}
		return nil
	})
	sort.Strings(categories)
	return categories, err
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.v.read(func(st *state) error {
		n = int64(len(st.products))
		return nil
	})
	return n, err
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
