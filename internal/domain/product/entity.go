// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/cafe-storefront/internal/apperror"
)

// Product represents a menu item. The storefront only reads products.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"not null;size:255;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Details     string          `gorm:"type:text" json:"details"`
	Ingredients string          `gorm:"type:text" json:"ingredients"`
	Nutrition   string          `gorm:"type:text" json:"nutrition"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;check:price >= 0" json:"price"`
	Category    string          `gorm:"size:100;index" json:"category"`
	ImageURL    string          `gorm:"size:500" json:"image_url"`
	IsFeatured  bool            `gorm:"default:false;index" json:"is_featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// HasCategory reports whether the product is filed under a category
func (p *Product) HasCategory() bool {
	return p.Category != ""
}

// ErrProductNotFound is returned when a product id does not resolve
var ErrProductNotFound = apperror.New(apperror.KindNotFound, "PRODUCT_NOT_FOUND", "Product not found")
