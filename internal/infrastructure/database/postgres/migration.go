// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/domain/cart"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/domain/profile"
	"github.com/your-org/cafe-storefront/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	// Dependency order
	models := []interface{}{
		&user.User{},
		&profile.Profile{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderLine{},
		&order.StatusHistory{},
	}

	for _, model := range models {
		m.log.WithField("model", fmt.Sprintf("%T", model)).Debug("Migrating model")
		if err := m.db.AutoMigrate(model); err != nil {
			return errors.Wrapf(err, "failed to migrate model %T", model)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates indexes that the struct tags cannot express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_created ON cart_items(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_created ON order_items(order_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_name ON products(category, name)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("sql", indexSQL).Warn("Failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return nil
}

// SeedInitialData loads the menu and, when a password is given, an admin account
func (m *Migration) SeedInitialData(adminEmail, adminPasswordHash string) error {
	if err := m.seedProducts(); err != nil {
		return errors.Wrap(err, "failed to seed products")
	}
	if adminPasswordHash == "" {
		m.log.Info("No admin password configured, skipping admin seed")
		return nil
	}
	if err := m.seedAdmin(adminEmail, adminPasswordHash); err != nil {
		return errors.Wrap(err, "failed to seed admin user")
	}
	return nil
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.WithField("products", count).Debug("Menu already seeded")
		return nil
	}

	menu := []product.Product{
		{Name: "Espresso", Category: "Coffee", Price: decimal.RequireFromString("90.00"), IsFeatured: true,
			Description: "A short, intense shot pulled from our house blend.",
			Ingredients: "Espresso", Nutrition: "5 kcal"},
		{Name: "Cafe Latte", Category: "Coffee", Price: decimal.RequireFromString("145.00"), IsFeatured: true,
			Description: "Espresso with steamed milk and a thin layer of foam.",
			Ingredients: "Espresso, whole milk", Nutrition: "190 kcal"},
		{Name: "Spanish Latte", Category: "Coffee", Price: decimal.RequireFromString("165.00"),
			Description: "Sweetened with condensed milk.",
			Ingredients: "Espresso, whole milk, condensed milk", Nutrition: "260 kcal"},
		{Name: "Cold Brew", Category: "Coffee", Price: decimal.RequireFromString("155.50"),
			Description: "Steeped for eighteen hours and served over ice.",
			Ingredients: "Coffee, water", Nutrition: "10 kcal"},
		{Name: "Matcha Latte", Category: "Tea", Price: decimal.RequireFromString("170.00"), IsFeatured: true,
			Description: "Ceremonial grade matcha whisked into steamed milk.",
			Ingredients: "Matcha, oat milk", Nutrition: "160 kcal"},
		{Name: "Earl Grey", Category: "Tea", Price: decimal.RequireFromString("110.00"),
			Description: "Black tea with bergamot.",
			Ingredients: "Black tea, bergamot oil", Nutrition: "2 kcal"},
		{Name: "Butter Croissant", Category: "Pastry", Price: decimal.RequireFromString("95.00"),
			Description: "Laminated by hand every morning.",
			Ingredients: "Flour, butter, yeast, sugar, salt", Nutrition: "270 kcal"},
		{Name: "Ensaymada", Category: "Pastry", Price: decimal.RequireFromString("85.00"), IsFeatured: true,
			Description: "Soft brioche topped with butter, sugar and cheese.",
			Ingredients: "Flour, butter, eggs, sugar, cheese", Nutrition: "340 kcal"},
		{Name: "Banana Bread", Category: "Pastry", Price: decimal.RequireFromString("75.00"),
			Description: "Moist loaf slice with toasted walnuts.",
			Ingredients: "Banana, flour, walnuts, brown sugar", Nutrition: "310 kcal"},
	}

	now := time.Now().UTC()
	for i := range menu {
		menu[i].ID = uuid.New()
		menu[i].CreatedAt = now
		menu[i].UpdatedAt = now
	}

	if err := m.db.Create(&menu).Error; err != nil {
		return err
	}
	m.log.WithField("products", len(menu)).Info("Seeded menu")
	return nil
}

func (m *Migration) seedAdmin(email, passwordHash string) error {
	email = user.NormalizeEmail(email)

	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		m.log.WithField("email", email).Debug("Admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		admin := user.User{
			Email:            email,
			PasswordHash:     passwordHash,
			EmailConfirmedAt: &now,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		p := profile.Profile{
			ID:        admin.ID,
			Email:     admin.Email,
			FullName:  "Store Admin",
			Role:      profile.RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"role": profile.RoleAdmin}),
		}).Create(&p).Error
		if err != nil {
			return err
		}

		m.log.WithField("email", email).Info("Created admin user")
		return nil
	})
}

// DropAllTables drops every storefront table. Development only.
func (m *Migration) DropAllTables() error {
	m.log.Warn("Dropping all database tables")

	tables := []string{
		"order_status_history",
		"order_items",
		"orders",
		"cart_items",
		"products",
		"profiles",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return errors.Wrapf(err, "failed to drop table %s", table)
		}
		m.log.WithField("table", table).Info("Dropped table")
	}
	return nil
}
