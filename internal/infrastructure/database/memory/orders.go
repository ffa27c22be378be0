package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/cafe-storefront/internal/domain/order"
)

// OrderRepository implements order.Repository
type OrderRepository struct {
	v view
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.v.write("orders.Create", func(st *state) error {
		stored := *o
		stored.Lines = nil
		stored.StatusHistory = nil
		st.orders[o.ID] = stored
		return nil
	})
}

func (r *OrderRepository) CreateLines(ctx context.Context, lines []order.OrderLine) error {
	return r.v.write("orders.CreateLines", func(st *state) error {
		for _, line := range lines {
			line.Product = nil
			st.orderLines[line.ID] = line
		}
		return nil
	})
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	orders := []order.Order{}
	err := r.v.read(func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID {
				orders = append(orders, hydrate(st, o, false))
			}
		}
		return nil
	})
	sortNewestFirst(orders)
	return orders, err
}

func (r *OrderRepository) FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*order.Order, error) {
	var found *order.Order
	err := r.v.read(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok || o.UserID != userID {
			return order.ErrOrderNotFound
		}
		h := hydrate(st, o, false)
		found = &h
		return nil
	})
	return found, err
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var found *order.Order
	err := r.v.read(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return order.ErrOrderNotFound
		}
		h := hydrate(st, o, true)
		found = &h
		return nil
	})
	return found, err
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, int64, error) {
	orders := []order.Order{}
	err := r.v.read(func(st *state) error {
		for _, o := range st.orders {
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			if filter.UserID != uuid.Nil && o.UserID != filter.UserID {
				continue
			}
			orders = append(orders, hydrate(st, o, false))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(orders)
	return page(orders, filter.Offset, filter.Limit), int64(len(orders)), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to order.Status) error {
	return r.v.write("orders.UpdateStatus", func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return order.ErrOrderNotFound
		}
		if o.Status != from {
			return order.ErrStatusChanged
		}
		o.Status = to
		o.UpdatedAt = time.Now().UTC()
		st.orders[orderID] = o
		return nil
	})
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, from, to order.PaymentStatus) error {
	return r.v.write("orders.UpdatePaymentStatus", func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return order.ErrOrderNotFound
		}
		if o.PaymentStatus != from {
			return order.ErrStatusChanged
		}
		o.PaymentStatus = to
		o.UpdatedAt = time.Now().UTC()
		st.orders[orderID] = o
		return nil
	})
}

func (r *OrderRepository) AddHistory(ctx context.Context, entry *order.StatusHistory) error {
	return r.v.write("orders.AddHistory", func(st *state) error {
		st.history = append(st.history, *entry)
		return nil
	})
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.v.read(func(st *state) error {
		n = int64(len(st.orders))
		return nil
	})
	return n, err
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]order.Order, error) {
	orders, _, err := r.List(ctx, order.ListFilter{Limit: limit})
	return orders, err
}

// hydrate attaches lines, their products and optionally the history
func hydrate(st *state, o order.Order, withHistory bool) order.Order {
	o.Lines = []order.OrderLine{}
	for _, line := range st.orderLines {
		if line.OrderID != o.ID {
			continue
		}
		if p, ok := st.products[line.ProductID]; ok {
			line.Product = &p
		}
		o.Lines = append(o.Lines, line)
	}
	sort.Slice(o.Lines, func(i, j int) bool {
		if !o.Lines[i].CreatedAt.Equal(o.Lines[j].CreatedAt) {
			return o.Lines[i].CreatedAt.Before(o.Lines[j].CreatedAt)
		}
		return o.Lines[i].ID.String() < o.Lines[j].ID.String()
	})

	if withHistory {
		for _, h := range st.history {
			if h.OrderID == o.ID {
				o.StatusHistory = append(o.StatusHistory, h)
			}
		}
	}
	return o
}

func sortNewestFirst(orders []order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID.String() > orders[j].ID.String()
	})
}
