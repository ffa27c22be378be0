// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/order"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateNames = []EmailType{
	EmailTypeEmailVerification,
	EmailTypePasswordReset,
	EmailTypePasswordChanged,
	EmailTypeOrderConfirmation,
}

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and sends account and order emails
type EmailService struct {
	cfg       *config.Config
	sender    Sender
	templates map[EmailType]*template.Template
	log       *logrus.Logger
}

// NewEmailService creates an email service using the configured provider
func NewEmailService(cfg *config.Config, log *logrus.Logger) (*EmailService, error) {
	var sender Sender
	switch cfg.Email.Provider {
	case "smtp":
		sender = newSMTPSender(cfg.Email)
	case "log":
		sender = &logSender{log: log}
	default:
		return nil, errors.Errorf("unsupported email provider: %s", cfg.Email.Provider)
	}
	return NewEmailServiceWithSender(cfg, sender, log)
}

// NewEmailServiceWithSender creates an email service around an explicit sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender, log *logrus.Logger) (*EmailService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &EmailService{
		cfg:       cfg,
		sender:    sender,
		templates: templates,
		log:       log,
	}, nil
}

func loadTemplates() (map[EmailType]*template.Template, error) {
	templates := make(map[EmailType]*template.Template, len(templateNames))
	for _, name := range templateNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(name)+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse email template %s", name)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// SendConfirmation implements user.Mailer
func (s *EmailService) SendConfirmation(ctx context.Context, to, link string) error {
	data := LinkEmailData{
		EmailTemplateData: s.base("", to),
		ActionURL:         link,
		ExpiryTime:        humanDuration(s.cfg.Store.EmailConfirmationTTL),
	}
	return s.send(ctx, EmailTypeEmailVerification, to, "Confirm your email address", data)
}

// SendPasswordReset implements user.Mailer
func (s *EmailService) SendPasswordReset(ctx context.Context, to, link string) error {
	data := LinkEmailData{
		EmailTemplateData: s.base("", to),
		ActionURL:         link,
		ExpiryTime:        humanDuration(s.cfg.Store.PasswordResetTTL),
	}
	return s.send(ctx, EmailTypePasswordReset, to, "Reset your password", data)
}

// SendPasswordChanged implements user.Mailer
func (s *EmailService) SendPasswordChanged(ctx context.Context, to string) error {
	return s.send(ctx, EmailTypePasswordChanged, to, "Your password was changed", s.base("", to))
}

// OrderPlaced implements order.Notifier
func (s *EmailService) OrderPlaced(ctx context.Context, buyer order.Buyer, o *order.Order) error {
	data := OrderConfirmationData{
		EmailTemplateData: s.base(buyer.FullName, buyer.Email),
		OrderNumber:       o.ShortID(),
		OrderDate:         o.CreatedAt.Format("January 2, 2006 15:04"),
		OrderURL:          fmt.Sprintf("%s/orders/%s", s.cfg.App.FrontendURL, o.ID),
		Subtotal:          s.money(o.Subtotal()),
		ShippingFee:       s.money(o.ShippingFee),
		Total:             s.money(o.Total),
		PaymentMethod:     paymentLabel(o.PaymentMethod),
		ShippingAddress:   o.ShippingAddress,
	}
	for _, line := range o.Lines {
		name := "Item"
		if line.Product != nil {
			name = line.Product.Name
		}
		data.Items = append(data.Items, OrderItem{
			Name:     name,
			Quantity: line.Quantity,
			Price:    s.money(line.Price),
			Total:    s.money(line.Total()),
		})
	}

	subject := fmt.Sprintf("Order Confirmation - #%s", o.ShortID())
	return s.send(ctx, EmailTypeOrderConfirmation, buyer.Email, subject, data)
}

func (s *EmailService) send(ctx context.Context, kind EmailType, to, subject string, data interface{}) error {
	html, err := s.render(kind, data)
	if err != nil {
		return err
	}

	email := &Email{
		To:          []string{to},
		Subject:     subject,
		HTMLContent: html,
		Type:        kind,
	}
	if err := s.sender.Send(ctx, email); err != nil {
		return errors.Wrapf(err, "failed to send %s email", kind)
	}
	return nil
}

func (s *EmailService) render(kind EmailType, data interface{}) (string, error) {
	tmpl, ok := s.templates[kind]
	if !ok {
		return "", errors.Errorf("template %s not found", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute template %s", kind)
	}
	return buf.String(), nil
}

func (s *EmailService) base(userName, userEmail string) EmailTemplateData {
	return baseTemplateData(s.cfg.App.Name, s.cfg.App.FrontendURL, userName, userEmail)
}

func (s *EmailService) money(d decimal.Decimal) string {
	return s.cfg.Store.Currency + " " + d.StringFixed(2)
}

func paymentLabel(m order.PaymentMethod) string {
	words := strings.Split(string(m), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}

// logSender writes emails to the application log instead of delivering them
type logSender struct {
	log *logrus.Logger
}

func (l *logSender) Send(ctx context.Context, email *Email) error {
	l.log.WithContext(ctx).WithFields(logrus.Fields{
		"to":      strings.Join(email.To, ", "),
		"subject": email.Subject,
		"type":    email.Type,
	}).Info("Email not delivered, log provider active")
	l.log.WithContext(ctx).Debug(email.HTMLContent)
	return nil
}
