// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeEmailVerification EmailType = "email_verification"
	EmailTypePasswordReset     EmailType = "password_reset"
	EmailTypePasswordChanged   EmailType = "password_changed"
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName  string
	SiteURL   string
	UserName  string
	UserEmail string
	Year      int
}

// LinkEmailData is used by the templates that carry a one-time link
type LinkEmailData struct {
	EmailTemplateData
	ActionURL  string
	ExpiryTime string
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderNumber     string
	OrderDate       string
	OrderURL        string
	Items           []OrderItem
	Subtotal        string
	ShippingFee     string
	Total           string
	PaymentMethod   string
	ShippingAddress string
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

// baseTemplateData returns common template data
func baseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	if userName == "" {
		userName = userEmail
	}
	return EmailTemplateData{
		SiteName:  siteName,
		SiteURL:   siteURL,
		UserName:  userName,
		UserEmail: userEmail,
		Year:      time.Now().Year(),
	}
}
