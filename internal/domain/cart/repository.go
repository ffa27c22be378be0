package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists user cart lines. Every method is scoped by the owning
// user id supplied by the authenticated session.
type Repository interface {
	// AddQuantity inserts the (user, product) line or increments its quantity.
	// It returns ErrQuantityTooLarge, writing nothing, when the line would
	// end up above limit.
	AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty, limit int) error
	// FindForUser returns ErrLineNotFound when the line is absent or not owned by userID
	FindForUser(ctx context.Context, lineID, userID uuid.UUID) (*CartItem, error)
	UpdateQuantity(ctx context.Context, lineID, userID uuid.UUID, qty int) error
	Delete(ctx context.Context, lineID, userID uuid.UUID) error
	// ListLines returns the user's lines joined with current product data
	ListLines(ctx context.Context, userID uuid.UUID) ([]Line, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumQuantity(ctx context.Context, userID uuid.UUID) (int, error)
}

// Transactor runs cart writes inside one database transaction
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repo Repository) error) error
}

// GuestStore keeps anonymous carts
type GuestStore interface {
	Load(ctx context.Context, sessionID string) (*GuestCartDocument, error)
	// Update applies fn to the current document and stores the result. fn is
	// run again on a fresh document when a concurrent write got in first; an
	// error from fn aborts without writing.
	Update(ctx context.Context, sessionID string, fn func(doc *GuestCartDocument) error) error
	Delete(ctx context.Context, sessionID string) error
}
