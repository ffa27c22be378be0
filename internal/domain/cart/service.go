// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/apperror"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

// Service handles cart business logic for both cart variants
type Service struct {
	repo     Repository
	tx       Transactor
	guests   GuestStore
	products product.Repository
	logger   *logrus.Logger
}

// NewService creates a new cart service
func NewService(repo Repository, tx Transactor, guests GuestStore, products product.Repository, log *logrus.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		guests:   guests,
		products: products,
		logger:   logger.OrDiscard(log),
	}
}

// AddLineRequest represents add to cart request
type AddLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// SetQuantityRequest represents a quantity change. Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=99"`
}

// GetCart returns the owner's lines and totals
func (s *Service) GetCart(ctx context.Context, owner Owner) (*View, error) {
	lines, err := s.ListLines(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &View{
		Kind:   owner.kind(),
		Lines:  lines,
		Totals: CalculateTotals(lines),
	}, nil
}

// ListLines returns the owner's lines with denormalized product data
func (s *Service) ListLines(ctx context.Context, owner Owner) ([]Line, error) {
	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return nil, apperror.ErrUnauthenticated
		}
		lines, err := s.repo.ListLines(ctx, o.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
		}
		return lines, nil
	case GuestCart:
		doc, err := s.guests.Load(ctx, o.SessionID)
		if err != nil {
			return nil, err
		}
		return s.guestLines(ctx, doc)
	default:
		return nil, fmt.Errorf("unsupported cart owner %T", owner)
	}
}

// AddLine adds qty units of a product, incrementing an existing line
func (s *Service) AddLine(ctx context.Context, owner Owner, productID uuid.UUID, qty int) (*View, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	if qty > MaxLineQuantity {
		return nil, ErrQuantityTooLarge
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return nil, apperror.ErrUnauthenticated
		}
		if err := s.repo.AddQuantity(ctx, o.UserID, productID, qty, MaxLineQuantity); err != nil {
			return nil, fmt.Errorf("failed to add item to cart: %w", err)
		}
	case GuestCart:
		err := s.guests.Update(ctx, o.SessionID, func(doc *GuestCartDocument) error {
			i := doc.find(productID)
			if i < 0 {
				doc.Items = append(doc.Items, GuestItem{
					ProductID: productID,
					Quantity:  qty,
					AddedAt:   time.Now().UTC(),
				})
				return nil
			}
			if doc.Items[i].Quantity > MaxLineQuantity-qty {
				return ErrQuantityTooLarge
			}
			doc.Items[i].Quantity += qty
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported cart owner %T", owner)
	}

	return s.GetCart(ctx, owner)
}

// SetQuantity changes a line's quantity; qty <= 0 removes it
func (s *Service) SetQuantity(ctx context.Context, owner Owner, lineID uuid.UUID, qty int) (*View, error) {
	if qty <= 0 {
		return s.RemoveLine(ctx, owner, lineID)
	}
	if qty > MaxLineQuantity {
		return nil, ErrQuantityTooLarge
	}

	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return nil, apperror.ErrUnauthenticated
		}
		if _, err := s.repo.FindForUser(ctx, lineID, o.UserID); err != nil {
			return nil, err
		}
		if err := s.repo.UpdateQuantity(ctx, lineID, o.UserID, qty); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case GuestCart:
		err := s.guests.Update(ctx, o.SessionID, func(doc *GuestCartDocument) error {
			i := doc.find(lineID)
			if i < 0 {
				return ErrLineNotFound
			}
			doc.Items[i].Quantity = qty
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported cart owner %T", owner)
	}

	return s.GetCart(ctx, owner)
}

// RemoveLine deletes a line. Absent or foreign lines yield ErrLineNotFound.
func (s *Service) RemoveLine(ctx context.Context, owner Owner, lineID uuid.UUID) (*View, error) {
	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return nil, apperror.ErrUnauthenticated
		}
		if _, err := s.repo.FindForUser(ctx, lineID, o.UserID); err != nil {
			return nil, err
		}
		if err := s.repo.Delete(ctx, lineID, o.UserID); err != nil {
			return nil, err
		}
	case GuestCart:
		err := s.guests.Update(ctx, o.SessionID, func(doc *GuestCartDocument) error {
			i := doc.find(lineID)
			if i < 0 {
				return ErrLineNotFound
			}
			doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported cart owner %T", owner)
	}

	return s.GetCart(ctx, owner)
}

// Clear removes every line of the owner's cart
func (s *Service) Clear(ctx context.Context, owner Owner) error {
	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return apperror.ErrUnauthenticated
		}
		if _, err := s.repo.DeleteAllForUser(ctx, o.UserID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	case GuestCart:
		if o.SessionID == "" {
			return ErrSessionRequired
		}
		return s.guests.Delete(ctx, o.SessionID)
	default:
		return fmt.Errorf("unsupported cart owner %T", owner)
	}
}

// Count returns the total quantity in the cart
func (s *Service) Count(ctx context.Context, owner Owner) (int, error) {
	switch o := owner.(type) {
	case UserCart:
		if o.UserID == uuid.Nil {
			return 0, apperror.ErrUnauthenticated
		}
		return s.repo.SumQuantity(ctx, o.UserID)
	case GuestCart:
		doc, err := s.guests.Load(ctx, o.SessionID)
		if err != nil {
			return 0, err
		}
		total := 0
		for _, item := range doc.Items {
			total += item.Quantity
		}
		return total, nil
	default:
		return 0, fmt.Errorf("unsupported cart owner %T", owner)
	}
}

// MergeGuestCart folds a guest cart into the user's cart when they sign in.
// Quantities of products present in both carts add up, capped at
// MaxLineQuantity. Products that left the catalog meanwhile are dropped.
// Returns the number of merged lines.
func (s *Service) MergeGuestCart(ctx context.Context, userID uuid.UUID, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, nil
	}

	doc, err := s.guests.Load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if len(doc.Items) == 0 {
		return 0, nil
	}

	known, err := s.knownProducts(ctx, doc)
	if err != nil {
		return 0, err
	}

	merged := 0
	err = s.tx.WithinTransaction(ctx, func(repo Repository) error {
		existing, err := repo.ListLines(ctx, userID)
		if err != nil {
			return err
		}
		current := make(map[uuid.UUID]int, len(existing))
		for _, line := range existing {
			current[line.ProductID] = line.Quantity
		}

		for _, item := range doc.Items {
			if _, ok := known[item.ProductID]; !ok {
				continue
			}
			qty := min(item.Quantity, MaxLineQuantity-current[item.ProductID])
			if qty < 1 {
				continue
			}
			if err := repo.AddQuantity(ctx, userID, item.ProductID, qty, MaxLineQuantity); err != nil {
				return err
			}
			current[item.ProductID] += qty
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to merge guest cart: %w", err)
	}

	if err := s.guests.Delete(ctx, sessionID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": sessionID,
		}).WithError(err).Warn("Guest cart merged but could not be deleted")
	}

	return merged, nil
}

func (s *Service) knownProducts(ctx context.Context, doc *GuestCartDocument) (map[uuid.UUID]product.Product, error) {
	ids := make([]uuid.UUID, 0, len(doc.Items))
	for _, item := range doc.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	byID := make(map[uuid.UUID]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *Service) guestLines(ctx context.Context, doc *GuestCartDocument) ([]Line, error) {
	if len(doc.Items) == 0 {
		return []Line{}, nil
	}

	known, err := s.knownProducts(ctx, doc)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(doc.Items))
	for _, item := range doc.Items {
		p, ok := known[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, Line{
			ID:        item.ProductID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Category:  p.Category,
			AddedAt:   item.AddedAt,
		})
	}
	return lines, nil
}
