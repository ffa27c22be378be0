package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository implements order.Repository
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return errors.Wrap(err, "failed to create order")
	}
	return nil
}

func (r *OrderRepository) CreateLines(ctx context.Context, lines []order.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&lines).Error; err != nil {
		return errors.Wrap(err, "failed to create order items")
	}
	return nil
}

// withLines preloads the lines in insertion order together with their products
func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.created_at ASC").Order("order_items.id ASC")
	}).Preload("Lines.Product")
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	orders := []order.Order{}
	err := withLines(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	return orders, nil
}

func (r *OrderRepository) FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := withLines(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	return &o, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := withLines(r.db.WithContext(ctx)).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", orderID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count orders")
	}

	orders := []order.Order{}
	err := withLines(query).
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list orders")
	}
	return orders, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to order.Status) error {
	return r.conditionalUpdate(ctx, orderID, "status", from, to)
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, from, to order.PaymentStatus) error {
	return r.conditionalUpdate(ctx, orderID, "payment_status", from, to)
}

// conditionalUpdate sets column to `to` only while it still holds `from`
func (r *OrderRepository) conditionalUpdate(ctx context.Context, orderID uuid.UUID, column string, from, to interface{}) error {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND "+column+" = ?", orderID, from).
		Updates(map[string]interface{}{
			column:       to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to update order %s", column)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
		return errors.Wrap(err, "failed to check order")
	}
	if exists == 0 {
		return order.ErrOrderNotFound
	}
	return order.ErrStatusChanged
}

func (r *OrderRepository) AddHistory(ctx context.Context, entry *order.StatusHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(err, "failed to record order history")
	}
	return nil
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count orders")
	}
	return n, nil
}

func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]order.Order, error) {
	orders, _, err := r.List(ctx, order.ListFilter{Limit: limit})
	return orders, err
}
