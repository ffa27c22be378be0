package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository implements cart.Repository
type CartRepository struct {
	db *gorm.DB
	// lock makes ListLines take row locks, set for transaction-bound repositories
	lock bool
}

// NewCartRepository creates a cart repository
func NewCartRepository(db *gorm.DB) *CartRepository {
	return newCartRepository(db, false)
}

func newCartRepository(db *gorm.DB, lock bool) *CartRepository {
	return &CartRepository{db: db, lock: lock}
}

func (r *CartRepository) AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty, limit int) error {
	if qty > limit {
		return cart.ErrQuantityTooLarge
	}

	now := time.Now().UTC()
	item := cart.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// the conditional DO UPDATE skips the row, leaving RowsAffected at 0, when
	// the sum would pass the limit
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + EXCLUDED.quantity"),
			"updated_at": now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("cart_items.quantity + EXCLUDED.quantity <= ?", limit),
		}},
	}).Create(&item)
	if err := result.Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return product.ErrProductNotFound
		case errors.Is(err, gorm.ErrCheckConstraintViolated):
			return cart.ErrQuantityTooLarge
		}
		return errors.Wrap(err, "failed to add cart item")
	}
	if result.RowsAffected == 0 {
		return cart.ErrQuantityTooLarge
	}
	return nil
}

func (r *CartRepository) FindForUser(ctx context.Context, lineID, userID uuid.UUID) (*cart.CartItem, error) {
	var item cart.CartItem
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrLineNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to find cart item")
	}
	return &item, nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, lineID, userID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).Model(&cart.CartItem{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update cart item")
	}
	if result.RowsAffected == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, lineID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).Delete(&cart.CartItem{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete cart item")
	}
	if result.RowsAffected == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) ListLines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	query := r.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select("ci.id, ci.product_id, ci.quantity, p.name, p.price, p.image_url, p.category, ci.created_at AS added_at").
		Joins("JOIN products AS p ON p.id = ci.product_id").
		Where("ci.user_id = ?", userID).
		Order("ci.created_at ASC").
		Order("ci.id ASC")
	if r.lock {
		// Concurrent checkouts of the same cart queue up behind the first one
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "ci"}})
	}

	lines := []cart.Line{}
	if err := query.Scan(&lines).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list cart lines")
	}
	return lines, nil
}

func (r *CartRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&cart.CartItem{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to clear cart")
	}
	return result.RowsAffected, nil
}

func (r *CartRepository) SumQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&cart.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ?", userID).
		Scan(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count cart items")
	}
	return n, nil
}
