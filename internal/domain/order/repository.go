package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
)

// ListFilter narrows the admin order listing
type ListFilter struct {
	Status Status
	UserID uuid.UUID
	Offset int
	Limit  int
}

// Repository persists orders. Reads return orders with their lines and the
// lines' products preloaded.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	CreateLines(ctx context.Context, lines []OrderLine) error
	// ListByUser returns the user's orders newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// FindByIDForUser returns ErrOrderNotFound when absent or owned by someone else
	FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	// UpdateStatus moves the order only if it is still in from; returns
	// ErrStatusChanged otherwise
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, from, to PaymentStatus) error
	AddHistory(ctx context.Context, entry *StatusHistory) error
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]Order, error)
}

// RepositoryFactory hands out repositories bound to one unit of work
type RepositoryFactory interface {
	CartRepository() cart.Repository
	OrderRepository() Repository
}

// TransactionManager runs fn inside a database transaction. The transaction
// commits when fn returns nil and rolls back on error or panic.
type TransactionManager interface {
	Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error
}
