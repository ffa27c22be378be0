// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
	"github.com/your-org/cafe-storefront/internal/pkg/pagination"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	maxAddressLength  = 500
	maxNotesLength    = 1000
	maxCommentLength  = 500
	defaultRecentSize = 5
)

// Deps collects the collaborators of the order service. Only Orders and
// Transactions are required.
type Deps struct {
	Orders       Repository
	Transactions TransactionManager
	Idempotency  IdempotencyStore
	Events       EventPublisher
	Notifier     Notifier
	Receipts     ReceiptRenderer
	ShippingFee  decimal.Decimal
	Logger       *logrus.Logger
}

// Service handles order business logic
type Service struct {
	orders      Repository
	tx          TransactionManager
	idem        IdempotencyStore
	events      EventPublisher
	notifier    Notifier
	receipts    ReceiptRenderer
	shippingFee decimal.Decimal
	logger      *logrus.Logger
}

// NewService creates a new order service
func NewService(deps Deps) *Service {
	s := &Service{
		orders:      deps.Orders,
		tx:          deps.Transactions,
		idem:        deps.Idempotency,
		events:      deps.Events,
		notifier:    deps.Notifier,
		receipts:    deps.Receipts,
		shippingFee: deps.ShippingFee,
		logger:      logger.OrDiscard(deps.Logger),
	}
	if s.idem == nil {
		s.idem = nopIdempotencyStore{}
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

// Buyer is the authenticated customer placing an order
type Buyer struct {
	UserID   uuid.UUID
	Email    string
	FullName string
}

// CreateOrderRequest represents the checkout form
type CreateOrderRequest struct {
	ShippingAddress string        `json:"shipping_address" binding:"required"`
	PaymentMethod   PaymentMethod `json:"payment_method" binding:"required"`
	Notes           string        `json:"notes"`
	IdempotencyKey  string        `json:"-"`
}

// Validate checks the checkout form
func (r *CreateOrderRequest) Validate() error {
	r.ShippingAddress = strings.TrimSpace(r.ShippingAddress)
	r.Notes = strings.TrimSpace(r.Notes)

	if r.ShippingAddress == "" {
		return apperror.Validation("Shipping address is required")
	}
	if len(r.ShippingAddress) > maxAddressLength {
		return apperror.Validation(fmt.Sprintf("Shipping address must be at most %d characters", maxAddressLength))
	}
	if !r.PaymentMethod.Valid() {
		return apperror.Validation("Unsupported payment method").WithDetails(string(r.PaymentMethod))
	}
	if len(r.Notes) > maxNotesLength {
		return apperror.Validation(fmt.Sprintf("Notes must be at most %d characters", maxNotesLength))
	}
	return nil
}

// CheckoutResult is the outcome of CreateOrder. Replayed is set when the
// idempotency key matched an order placed earlier.
type CheckoutResult struct {
	Order    *Order `json:"order"`
	Replayed bool   `json:"replayed"`
}

// Quote is the price breakdown shown before and frozen at checkout
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ListRequest represents admin order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status Status `form:"status"`
}

// ListResponse represents a page of orders
type ListResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ShippingFee returns the flat fee added to every order
func (s *Service) ShippingFee() decimal.Decimal {
	return s.shippingFee
}

// Quote prices a set of cart lines at their current price
func (s *Service) Quote(lines []cart.Line) Quote {
	subtotal := cart.CalculateTotals(lines).Subtotal
	return Quote{
		Subtotal:    subtotal,
		ShippingFee: s.shippingFee,
		Total:       subtotal.Add(s.shippingFee),
	}
}

// CreateOrder turns the buyer's cart into an order. The order row, its lines
// and the cart drain commit together or not at all.
func (s *Service) CreateOrder(ctx context.Context, buyer Buyer, req CreateOrderRequest) (*CheckoutResult, error) {
	if buyer.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := s.idem.Reserve(ctx, buyer.UserID, key)
		switch {
		case errors.Is(err, ErrCheckoutInProgress):
			return nil, err
		case err != nil:
			s.logger.WithField("user_id", buyer.UserID).WithError(err).
				Warn("Idempotency store unavailable, checking out without duplicate protection")
			key = ""
		case existing != uuid.Nil:
			o, err := s.orders.FindByIDForUser(ctx, existing, buyer.UserID)
			if err == nil {
				return &CheckoutResult{Order: o, Replayed: true}, nil
			}
			s.logger.WithFields(logrus.Fields{
				"user_id":  buyer.UserID,
				"order_id": existing,
			}).WithError(err).Warn("Idempotency key points at a missing order")
			s.releaseKey(ctx, buyer.UserID, key)
			if _, err := s.idem.Reserve(ctx, buyer.UserID, key); err != nil {
				return nil, err
			}
		}
	}

	placed, err := s.placeOrder(ctx, buyer.UserID, req)
	if err != nil {
		if key != "" {
			s.releaseKey(ctx, buyer.UserID, key)
		}
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id": placed.ID,
		"user_id":  buyer.UserID,
	})
	log.WithField("total", placed.Total.StringFixed(2)).Info("Order placed")

	if key != "" {
		if err := s.idem.Complete(ctx, buyer.UserID, key, placed.ID); err != nil {
			log.WithError(err).Warn("Failed to record idempotency key")
		}
	}
	if err := s.events.Publish(ctx, newEvent(EventOrderCreated, placed)); err != nil {
		log.WithError(err).Warn("Failed to publish order created event")
	}
	if err := s.notifier.OrderPlaced(ctx, buyer, placed); err != nil {
		log.WithError(err).Warn("Failed to send order confirmation")
	}

	return &CheckoutResult{Order: placed}, nil
}

func (s *Service) placeOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error) {
	var (
		placed   *Order
		snapshot map[uuid.UUID]cart.Line
	)

	err := s.tx.Execute(ctx, func(repos RepositoryFactory) error {
		carts := repos.CartRepository()
		orders := repos.OrderRepository()

		lines, err := carts.ListLines(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(lines) == 0 {
			return apperror.ErrEmptyCart
		}

		now := time.Now().UTC()
		quote := s.Quote(lines)
		o := &Order{
			ID:              uuid.New(),
			UserID:          userID,
			Status:          StatusPending,
			PaymentStatus:   PaymentStatusPending,
			Total:           quote.Total,
			ShippingFee:     quote.ShippingFee,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := orders.Create(ctx, o); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		orderLines := make([]OrderLine, 0, len(lines))
		snapshot = make(map[uuid.UUID]cart.Line, len(lines))
		for _, line := range lines {
			orderLines = append(orderLines, OrderLine{
				ID:        uuid.New(),
				OrderID:   o.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
				CreatedAt: now,
			})
			snapshot[line.ProductID] = line
		}
		if err := orders.CreateLines(ctx, orderLines); err != nil {
			return fmt.Errorf("failed to create order lines: %w", err)
		}

		if _, err := carts.DeleteAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		o.Lines = orderLines
		placed = o
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrEmptyCart) {
			return nil, err
		}
		s.logger.WithField("user_id", userID).WithError(err).Error("Checkout rolled back")
		return nil, apperror.TransactionFailed(err)
	}

	// Display data is attached after commit so it never reaches the insert
	for i := range placed.Lines {
		line := snapshot[placed.Lines[i].ProductID]
		placed.Lines[i].Product = &product.Product{
			ID:       line.ProductID,
			Name:     line.Name,
			Price:    line.Price,
			Category: line.Category,
			ImageURL: line.ImageURL,
		}
	}
	return placed, nil
}

func (s *Service) releaseKey(ctx context.Context, userID uuid.UUID, key string) {
	if err := s.idem.Release(ctx, userID, key); err != nil {
		s.logger.WithField("user_id", userID).WithError(err).Warn("Failed to release idempotency key")
	}
}

// ListUserOrders returns the user's orders newest first
func (s *Service) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// GetUserOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *Service) GetUserOrder(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthenticated
	}
	return s.orders.FindByIDForUser(ctx, orderID, userID)
}

// Receipt renders the PDF receipt of one of the buyer's orders
func (s *Service) Receipt(ctx context.Context, orderID uuid.UUID, buyer Buyer) ([]byte, error) {
	if s.receipts == nil {
		return nil, apperror.New(apperror.KindNotFound, "RECEIPTS_DISABLED", "Receipts are not available")
	}

	o, err := s.GetUserOrder(ctx, orderID, buyer.UserID)
	if err != nil {
		return nil, err
	}

	pdf, err := s.receipts.RenderReceipt(o, buyer.Email)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to render receipt: %w", err))
	}
	return pdf, nil
}

// ListOrders returns all orders for the back-office
func (s *Service) ListOrders(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, apperror.Validation("Unknown order status").WithDetails(string(req.Status))
	}

	page, limit := pagination.Normalize(req.Page, req.Limit, defaultPageSize, maxPageSize)
	orders, total, err := s.orders.List(ctx, ListFilter{
		Status: req.Status,
		Offset: pagination.Offset(page, limit),
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetOrder returns any order by id
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// UpdateStatus moves an order along the fulfilment chain
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, to Status, adminID uuid.UUID, comment string) (*Order, error) {
	if !to.Valid() {
		return nil, apperror.Validation("Unknown order status").WithDetails(string(to))
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return nil, apperror.Validation(fmt.Sprintf("Comment must be at most %d characters", maxCommentLength))
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if !CanTransition(from, to) {
		return nil, ErrInvalidTransition.WithDetails(fmt.Sprintf("%s -> %s", from, to))
	}

	err = s.tx.Execute(ctx, func(repos RepositoryFactory) error {
		orders := repos.OrderRepository()
		if err := orders.UpdateStatus(ctx, orderID, from, to); err != nil {
			return err
		}
		return orders.AddHistory(ctx, &StatusHistory{
			ID:        uuid.New(),
			OrderID:   orderID,
			Status:    to,
			Comment:   comment,
			ChangedBy: adminID,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, err
		}
		return nil, apperror.TransactionFailed(err)
	}

	o.Status = to
	event := newEvent(EventStatusChanged, o)
	event.PreviousStatus = from
	event.ChangedBy = adminID
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithField("order_id", orderID).WithError(err).Warn("Failed to publish status change")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"admin_id": adminID,
	}).Info("Order status updated")

	return s.orders.FindByID(ctx, orderID)
}

// UpdatePaymentStatus records a payment outcome
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, to PaymentStatus, adminID uuid.UUID) (*Order, error) {
	if !to.Valid() {
		return nil, apperror.Validation("Unknown payment status").WithDetails(string(to))
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.PaymentStatus
	if !CanTransitionPayment(from, to) {
		return nil, ErrInvalidPaymentTransition.WithDetails(fmt.Sprintf("%s -> %s", from, to))
	}

	err = s.tx.Execute(ctx, func(repos RepositoryFactory) error {
		orders := repos.OrderRepository()
		if err := orders.UpdatePaymentStatus(ctx, orderID, from, to); err != nil {
			return err
		}
		return orders.AddHistory(ctx, &StatusHistory{
			ID:            uuid.New(),
			OrderID:       orderID,
			PaymentStatus: to,
			ChangedBy:     adminID,
			CreatedAt:     time.Now().UTC(),
		})
	})
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, err
		}
		return nil, apperror.TransactionFailed(err)
	}

	o.PaymentStatus = to
	event := newEvent(EventPaymentStatusChanged, o)
	event.ChangedBy = adminID
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WithField("order_id", orderID).WithError(err).Warn("Failed to publish payment status change")
	}

	return s.orders.FindByID(ctx, orderID)
}

// Count returns the number of orders
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.orders.Count(ctx)
}

// Recent returns the latest orders
func (s *Service) Recent(ctx context.Context, limit int) ([]Order, error) {
	if limit < 1 {
		limit = defaultRecentSize
	}
	return s.orders.Recent(ctx, limit)
}
