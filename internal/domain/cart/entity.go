// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/cafe-storefront/internal/apperror"
)

// MaxLineQuantity caps the units of one product in a cart
const MaxLineQuantity = 99

// CartItem is a persisted line of a signed-in user's cart
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity BETWEEN 1 AND 99" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// GuestCartDocument is the redis representation of an anonymous cart
type GuestCartDocument struct {
	SessionID string      `json:"session_id"`
	Items     []GuestItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// GuestItem is one product entry of a guest cart
type GuestItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// find returns the index of productID in the document, or -1
func (d *GuestCartDocument) find(productID uuid.UUID) int {
	for i := range d.Items {
		if d.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line is a cart line joined with the current product data for display
type Line struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Category  string          `json:"category"`
	AddedAt   time.Time       `json:"added_at"`
}

// Total returns price times quantity
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals summarizes a cart
type Totals struct {
	ItemCount     int             `json:"item_count"`     // Number of distinct lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// View is what the cart endpoints return
type View struct {
	Kind   string `json:"kind"`
	Lines  []Line `json:"lines"`
	Totals Totals `json:"totals"`
}

// CalculateTotals sums a set of lines
func CalculateTotals(lines []Line) Totals {
	totals := Totals{ItemCount: len(lines), Subtotal: decimal.Zero}
	for _, line := range lines {
		totals.TotalQuantity += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(line.Total())
	}
	return totals
}

var (
	// ErrLineNotFound covers both absent lines and lines owned by someone else
	ErrLineNotFound = apperror.New(apperror.KindNotFound, "CART_LINE_NOT_FOUND", "Cart item not found")

	// ErrInvalidQuantity is returned when adding less than one unit
	ErrInvalidQuantity = apperror.New(apperror.KindValidation, "INVALID_QUANTITY", "Quantity must be at least 1")

	// ErrQuantityTooLarge is returned when a line would exceed MaxLineQuantity
	ErrQuantityTooLarge = apperror.New(apperror.KindValidation, "QUANTITY_TOO_LARGE",
		fmt.Sprintf("You can order at most %d of each item", MaxLineQuantity))

	// ErrCartBusy is returned when a guest cart keeps changing under a write
	ErrCartBusy = apperror.New(apperror.KindConflict, "CART_BUSY", "Your cart was updated at the same time, please try again")

	// ErrSessionRequired is returned when a guest cart is addressed without a session id
	ErrSessionRequired = apperror.New(apperror.KindValidation, "SESSION_REQUIRED", "A cart session is required")
)
