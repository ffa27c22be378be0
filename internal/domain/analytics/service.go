// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"

	"github.com/your-org/cafe-storefront/internal/domain/order"
	"golang.org/x/sync/errgroup"
)

const recentOrdersLimit = 5

// Counter is anything that can report a row count
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// OrderSource supplies the order figures of the dashboard
type OrderSource interface {
	Counter
	Recent(ctx context.Context, limit int) ([]order.Order, error)
}

// Service builds the admin dashboard
type Service struct {
	users    Counter
	products Counter
	orders   OrderSource
}

// NewService creates a new analytics service
func NewService(users, products Counter, orders OrderSource) *Service {
	return &Service{
		users:    users,
		products: products,
		orders:   orders,
	}
}

// DashboardStats represents the back-office overview
type DashboardStats struct {
	UsersCount    int64         `json:"users_count"`
	ProductsCount int64         `json:"products_count"`
	OrdersCount   int64         `json:"orders_count"`
	RecentOrders  []order.Order `json:"recent_orders"`
}

// Dashboard loads every figure concurrently and fails if any of them fails
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		stats.UsersCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.products.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		stats.ProductsCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.orders.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		stats.OrdersCount = n
		return nil
	})
	g.Go(func() error {
		recent, err := s.orders.Recent(ctx, recentOrdersLimit)
		if err != nil {
			return fmt.Errorf("failed to load recent orders: %w", err)
		}
		stats.RecentOrders = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
