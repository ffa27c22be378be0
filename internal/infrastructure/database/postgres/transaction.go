package postgres

import (
	"context"

	"github.com/pkg/errors"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"gorm.io/gorm"
)

// TransactionManager implements order.TransactionManager with gorm
type TransactionManager struct {
	db *gorm.DB
}

// repositoryFactory hands out repositories bound to one transaction
type repositoryFactory struct {
	tx *gorm.DB
}

func (f *repositoryFactory) CartRepository() cart.Repository {
	return newCartRepository(f.tx, true)
}

func (f *repositoryFactory) OrderRepository() order.Repository {
	return NewOrderRepository(f.tx)
}

// NewTransactionManager creates a transaction manager over db
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// Execute runs fn inside one database transaction. The transaction commits
// when fn returns nil and rolls back otherwise, including on panic.
func (tm *TransactionManager) Execute(ctx context.Context, fn func(repos order.RepositoryFactory) error) error {
	return tm.run(ctx, func(tx *gorm.DB) error {
		return fn(&repositoryFactory{tx: tx})
	})
}

// WithinTransaction implements cart.Transactor
func (tm *TransactionManager) WithinTransaction(ctx context.Context, fn func(repo cart.Repository) error) error {
	return tm.run(ctx, func(tx *gorm.DB) error {
		return fn(newCartRepository(tx, true))
	})
}

func (tm *TransactionManager) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Wrapf(err, "transaction rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
