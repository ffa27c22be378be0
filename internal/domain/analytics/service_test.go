package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cafe-storefront/internal/domain/analytics"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/infrastructure/database/memory"
)

type failingCounter struct{}

func (failingCounter) Count(context.Context) (int64, error) {
	return 0, errors.New("connection refused")
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	latte := product.Product{ID: uuid.New(), Name: "Latte", Price: decimal.RequireFromString("120")}
	store.Products().Put(latte)
	store.Products().Put(product.Product{ID: uuid.New(), Name: "Croissant", Price: decimal.RequireFromString("85")})

	for i := 0; i < 7; i++ {
		userID := uuid.New()
		_, err := store.Profiles().CreateIfAbsent(ctx, &profile.Profile{ID: userID, Role: profile.RoleUser, CreatedAt: time.Now()})
		require.NoError(t, err)
		require.NoError(t, store.Orders().Create(ctx, &order.Order{
			ID:        uuid.New(),
			UserID:    userID,
			Status:    order.StatusPending,
			Total:     decimal.RequireFromString("170"),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestDashboard(t *testing.T) {
	store := memory.New()
	seed(t, store)

	svc := analytics.NewService(store.Profiles(), store.Products(), store.Orders())
	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 7, stats.UsersCount)
	assert.EqualValues(t, 2, stats.ProductsCount)
	assert.EqualValues(t, 7, stats.OrdersCount)
	require.Len(t, stats.RecentOrders, 5)
	assert.True(t, stats.RecentOrders[0].CreatedAt.After(stats.RecentOrders[4].CreatedAt))
}

func TestDashboard_FailsWhenAnyFigureFails(t *testing.T) {
	store := memory.New()
	svc := analytics.NewService(failingCounter{}, store.Products(), store.Orders())

	_, err := svc.Dashboard(context.Background())
	assert.ErrorContains(t, err, "failed to count users")
}
