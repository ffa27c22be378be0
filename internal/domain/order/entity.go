// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/product"
)

// Status represents the order status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how the customer intends to pay. Capture is simulated.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentEWallet        PaymentMethod = "e_wallet"
)

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusCompleted},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Valid reports whether m is an accepted payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentCard, PaymentBankTransfer, PaymentEWallet:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Orders only move one step forward, or from pending into cancelled.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment is CanTransition for payment statuses
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents the order entity
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Status          Status          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_fee"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"size:30;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Lines         []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderLine is an immutable snapshot of a cart line at purchase time
type OrderLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"` // Frozen unit price
	CreatedAt time.Time       `json:"created_at"`

	Product *product.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// StatusHistory is the admin audit trail of an order
type StatusHistory struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	Status        Status        `gorm:"size:20" json:"status,omitempty"`
	PaymentStatus PaymentStatus `gorm:"size:20" json:"payment_status,omitempty"`
	Comment       string        `gorm:"type:text" json:"comment"`
	ChangedBy     uuid.UUID     `gorm:"type:uuid;index" json:"changed_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderLine) TableName() string     { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// Total returns price times quantity
func (l OrderLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the order's lines
func (o *Order) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range o.Lines {
		subtotal = subtotal.Add(line.Total())
	}
	return subtotal
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	count := 0
	for _, line := range o.Lines {
		count += line.Quantity
	}
	return count
}

// ShortID is the human-facing order reference
func (o *Order) ShortID() string {
	return o.ID.String()[:8]
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return CanTransition(o.Status, StatusCancelled)
}

var (
	ErrOrderNotFound = apperror.New(apperror.KindNotFound, "ORDER_NOT_FOUND", "Order not found")

	ErrInvalidTransition = apperror.New(apperror.KindValidation, "INVALID_STATUS_TRANSITION", "The order cannot move to that status")

	ErrInvalidPaymentTransition = apperror.New(apperror.KindValidation, "INVALID_PAYMENT_TRANSITION", "The payment cannot move to that status")

	ErrCheckoutInProgress = apperror.New(apperror.KindConflict, "CHECKOUT_IN_PROGRESS", "This checkout is already being processed")

	// ErrStatusChanged is returned when another admin moved the order first
	ErrStatusChanged = apperror.New(apperror.KindConflict, "ORDER_STATUS_CHANGED", "The order was updated by someone else. Reload and try again")
)
