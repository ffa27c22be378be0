// internal/domain/product/service.go
package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/pkg/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	relatedLimit    = 4
	featuredLimit   = 4
)

// Service handles catalog queries
type Service struct {
	repo Repository
}

// NewService creates a new product service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Featured *bool  `form:"featured"`
}

// ListResponse represents a page of products
type ListResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// List returns products ordered by name
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit, defaultPageSize, maxPageSize)

	products, total, err := s.repo.List(ctx, ListFilter{
		Search:   strings.TrimSpace(req.Search),
		Category: strings.TrimSpace(req.Category),
		Featured: req.Featured,
		Offset:   pagination.Offset(page, limit),
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ListResponse{
		Products:   products,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// Get retrieves a single product
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Related returns up to four other products from the same category
func (s *Service) Related(ctx context.Context, id uuid.UUID) ([]Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasCategory() {
		return []Product{}, nil
	}

	related, err := s.repo.FindRelated(ctx, p.Category, p.ID, relatedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load related products: %w", err)
	}
	return related, nil
}

// Featured returns the featured products shown on the home page
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	featured := true
	products, _, err := s.repo.List(ctx, ListFilter{Featured: &featured, Limit: featuredLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load featured products: %w", err)
	}
	return products, nil
}

// Categories returns the distinct product categories
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// Count returns the number of products in the catalog
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
