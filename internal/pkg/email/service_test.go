package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/order"
	"github.com/your-org/cafe-storefront/internal/domain/product"
	"github.com/your-org/cafe-storefront/internal/pkg/logger"
)

type recordingSender struct {
	sent []*Email
	err  error
}

func (r *recordingSender) Send(ctx context.Context, email *Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, email)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Kape Corner", FrontendURL: "https://kape.test"},
		Store: config.StoreConfig{
			Currency:             "PHP",
			EmailConfirmationTTL: 24 * time.Hour,
			PasswordResetTTL:     time.Hour,
		},
		Email: config.EmailConfig{Provider: "log"},
	}
}

func newTestService(t *testing.T) (*EmailService, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	svc, err := NewEmailServiceWithSender(testConfig(), sender, logger.Discard())
	require.NoError(t, err)
	return svc, sender
}

func TestEmailService_SendConfirmation(t *testing.T) {
	svc, sender := newTestService(t)

	err := svc.SendConfirmation(context.Background(), "ana@example.com", "https://kape.test/auth/confirm?token=abc")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	sent := sender.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, sent.To)
	assert.Equal(t, EmailTypeEmailVerification, sent.Type)
	assert.Contains(t, sent.HTMLContent, "https://kape.test/auth/confirm?token=abc")
	assert.Contains(t, sent.HTMLContent, "24 hours")
	assert.Contains(t, sent.HTMLContent, "Kape Corner")
}

func TestEmailService_SendPasswordReset(t *testing.T) {
	svc, sender := newTestService(t)

	require.NoError(t, svc.SendPasswordReset(context.Background(), "ana@example.com", "https://kape.test/reset-password?token=xyz"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Reset your password", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTMLContent, "1 hour")
}

func TestEmailService_OrderPlaced(t *testing.T) {
	svc, sender := newTestService(t)

	o := &order.Order{
		ID:              uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001"),
		ShippingFee:     decimal.NewFromInt(50),
		Total:           decimal.RequireFromString("340.00"),
		ShippingAddress: "12 Mabini St, Quezon City",
		PaymentMethod:   order.PaymentCashOnDelivery,
		CreatedAt:       time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		Lines: []order.OrderLine{
			{Quantity: 2, Price: decimal.RequireFromString("145.00"), Product: &product.Product{Name: "Cafe Latte"}},
		},
	}
	buyer := order.Buyer{UserID: uuid.New(), Email: "ana@example.com", FullName: "Ana Santos"}

	require.NoError(t, svc.OrderPlaced(context.Background(), buyer, o))
	require.Len(t, sender.sent, 1)

	html := sender.sent[0].HTMLContent
	assert.Equal(t, "Order Confirmation - #3f2a9c1e", sender.sent[0].Subject)
	assert.Contains(t, html, "Hello Ana Santos")
	assert.Contains(t, html, "Cafe Latte")
	assert.Contains(t, html, "PHP 290.00")
	assert.Contains(t, html, "PHP 340.00")
	assert.Contains(t, html, "Cash On Delivery")
	assert.Contains(t, html, "https://kape.test/orders/3f2a9c1e-0000-4000-8000-000000000001")
}

func TestEmailService_EscapesUserInput(t *testing.T) {
	svc, sender := newTestService(t)

	o := &order.Order{
		ID:              uuid.New(),
		ShippingAddress: "<script>alert(1)</script>",
		PaymentMethod:   order.PaymentCard,
	}
	require.NoError(t, svc.OrderPlaced(context.Background(), order.Buyer{Email: "ana@example.com"}, o))
	assert.NotContains(t, sender.sent[0].HTMLContent, "<script>")
}

func TestEmailService_SenderFailure(t *testing.T) {
	svc, sender := newTestService(t)
	sender.err = errors.New("relay refused")

	err := svc.SendPasswordChanged(context.Background(), "ana@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay refused")
}

func TestNewEmailService_RejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Email.Provider = "carrier-pigeon"

	_, err := NewEmailService(cfg, logger.Discard())
	assert.Error(t, err)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "3 days", humanDuration(72*time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
}
