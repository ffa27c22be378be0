package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
)

// CartRepository implements cart.Repository
type CartRepository struct {
	v view
}

func (r *CartRepository) AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty, limit int) error {
	if qty > limit {
		return cart.ErrQuantityTooLarge
	}
	return r.v.write("cart_items.AddQuantity", func(st *state) error {
		now := time.Now().UTC()
		for id, item := range st.cartItems {
			if item.UserID == userID && item.ProductID == productID {
				if item.Quantity > limit-qty {
					return cart.ErrQuantityTooLarge
				}
				item.Quantity += qty
				item.UpdatedAt = now
				st.cartItems[id] = item
				return nil
			}
		}
		id := uuid.New()
		st.cartItems[id] = cart.CartItem{
			ID:        id,
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
}

func (r *CartRepository) FindForUser(ctx context.Context, lineID, userID uuid.UUID) (*cart.CartItem, error) {
	var found *cart.CartItem
	err := r.v.read(func(st *state) error {
		item, ok := st.cartItems[lineID]
		if !ok || item.UserID != userID {
			return cart.ErrLineNotFound
		}
		found = &item
		return nil
	})
	return found, err
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, lineID, userID uuid.UUID, qty int) error {
	return r.v.write("cart_items.UpdateQuantity", func(st *state) error {
		item, ok := st.cartItems[lineID]
		if !ok || item.UserID != userID {
			return cart.ErrLineNotFound
		}
		item.Quantity = qty
		item.UpdatedAt = time.Now().UTC()
		st.cartItems[lineID] = item
		return nil
	})
}

func (r *CartRepository) Delete(ctx context.Context, lineID, userID uuid.UUID) error {
	return r.v.write("cart_items.Delete", func(st *state) error {
		item, ok := st.cartItems[lineID]
		if !ok || item.UserID != userID {
			return cart.ErrLineNotFound
		}
		delete(st.cartItems, lineID)
		return nil
	})
}

func (r *CartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	lines := []cart.Line{}
	err := r.v.write("cart_items.ListLines", func(st *state) error {
		for _, item := range st.cartItems {
			if item.UserID != userID {
				continue
			}
			p, ok := st.products[item.ProductID]
			if !ok {
				continue
			}
			lines = append(lines, cart.Line{
				ID:        item.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Name:      p.Name,
				Price:     p.Price,
				ImageURL:  p.ImageURL,
				Category:  p.Category,
				AddedAt:   item.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lines[i].AddedAt.Before(lines[j].AddedAt)
		}
		return lines[i].ID.String() < lines[j].ID.String()
	})
	return lines, nil
}

func (r *CartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.v.write("cart_items.DeleteAllForUser", func(st *state) error {
		for id, item := range st.cartItems {
			if item.UserID == userID {
				delete(st.cartItems, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *CartRepository) SumQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	total := 0
	err := r.v.read(func(st *state) error {
		for _, item := range st.cartItems {
			if item.UserID == userID {
				total += item.Quantity
			}
		}
		return nil
	})
	return total, err
}
