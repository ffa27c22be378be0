package pdf

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
)

func TestService_ReceiptHTML(t *testing.T) {
	svc := NewService(&config.Config{
		Store: config.StoreConfig{Currency: "PHP"},
		PDF:   config.PDFConfig{CompanyName: "Kape Corner", CompanyPhone: "+63 2 555 0100"},
	})

	o := &order.Order{
		ID:              uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000009"),
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentStatusPending,
		PaymentMethod:   order.PaymentCard,
		ShippingAddress: "12 Mabini St",
		ShippingFee:     decimal.NewFromInt(50),
		Total:           decimal.RequireFromString("335.50"),
		CreatedAt:       time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Lines: []order.OrderLine{
			{Quantity: 1, Price: decimal.RequireFromString("155.50"), Product: &product.Product{Name: "Cold Brew"}},
			{Quantity: 2, Price: decimal.RequireFromString("65.00"), Product: &product.Product{Name: "Pan de Sal & Butter"}},
		},
	}

	html, err := svc.ReceiptHTML(o, "ana@example.com")
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "RCPT-a1b2c3d4")
	assert.Contains(t, out, "Kape Corner")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "Cold Brew")
	assert.Contains(t, out, "Pan de Sal &amp; Butter")
	assert.Contains(t, out, "PHP 130.00")
	assert.Contains(t, out, "PHP 285.50")
	assert.Contains(t, out, "PHP 335.50")
	assert.Contains(t, out, `class="badge pending"`)
}

func TestService_ReceiptHTMLFallsBackToProductID(t *testing.T) {
	svc := NewService(&config.Config{Store: config.StoreConfig{Currency: "PHP"}})
	productID := uuid.New()

	html, err := svc.ReceiptHTML(&order.Order{
		ID:    uuid.New(),
		Lines: []order.OrderLine{{ProductID: productID, Quantity: 1, Price: decimal.NewFromInt(90)}},
	}, "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, string(html), productID.String())
}
