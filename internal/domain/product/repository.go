package product

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows a catalog listing
type ListFilter struct {
	Search   string
	Category string
	Featured *bool
	Offset   int
	Limit    int
}

// Repository is the catalog's read model
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindRelated(ctx context.Context, category string, excludeID uuid.UUID, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}
