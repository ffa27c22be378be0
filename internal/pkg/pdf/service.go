// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/order"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service renders order receipts as PDF documents
type Service struct {
	company  CompanyInfo
	currency string
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	if cfg.PDF.WkhtmltopdfPath != "" {
		wkhtmltopdf.SetPath(cfg.PDF.WkhtmltopdfPath)
	}
	return &Service{
		company: CompanyInfo{
			Name:    cfg.PDF.CompanyName,
			Address: cfg.PDF.CompanyAddress,
			Phone:   cfg.PDF.CompanyPhone,
			Email:   cfg.PDF.CompanyEmail,
		},
		currency: cfg.Store.Currency,
	}
}

// RenderReceipt implements order.ReceiptRenderer
func (s *Service) RenderReceipt(o *order.Order, customerEmail string) ([]byte, error) {
	htmlContent, err := s.ReceiptHTML(o, customerEmail)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PDF generator")
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, errors.Wrap(err, "failed to create PDF")
	}
	return pdfg.Bytes(), nil
}

// ReceiptHTML renders the receipt markup that RenderReceipt converts
func (s *Service) ReceiptHTML(o *order.Order, customerEmail string) ([]byte, error) {
	data := ReceiptData{
		ReceiptNumber:   "RCPT-" + o.ShortID(),
		OrderNumber:     o.ShortID(),
		IssuedAt:        time.Now().UTC().Format("January 2, 2006"),
		OrderDate:       o.CreatedAt.Format("January 2, 2006 15:04"),
		CustomerEmail:   customerEmail,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Status:          string(o.Status),
		Paid:            o.PaymentStatus == order.PaymentStatusPaid,
		Subtotal:        s.money(o.Subtotal()),
		ShippingFee:     s.money(o.ShippingFee),
		Total:           s.money(o.Total),
		Company:         s.company,
	}
	for _, line := range o.Lines {
		name := line.ProductID.String()
		if line.Product != nil {
			name = line.Product.Name
		}
		data.Lines = append(data.Lines, ReceiptLine{
			Name:     name,
			Quantity: line.Quantity,
			Price:    s.money(line.Price),
			Total:    s.money(line.Total()),
		})
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "failed to execute receipt template")
	}
	return buf.Bytes(), nil
}

func (s *Service) money(d decimal.Decimal) string {
	return s.currency + " " + d.StringFixed(2)
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber   string
	OrderNumber     string
	IssuedAt        string
	OrderDate       string
	CustomerEmail   string
	ShippingAddress string
	PaymentMethod   string
	PaymentStatus   string
	Status          string
	Paid            bool
	Lines           []ReceiptLine
	Subtotal        string
	ShippingFee     string
	Total           string
	Company         CompanyInfo
}

// ReceiptLine is one priced line of the receipt
type ReceiptLine struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 24px; border-bottom: 2px solid #eee; padding-bottom: 16px; }
        .title { font-size: 24px; font-weight: bold; color: #5b3a29; }
        .meta td { padding: 3px 0; vertical-align: top; }
        .meta .label { font-weight: bold; width: 140px; }
        .items { width: 100%; border-collapse: collapse; margin: 24px 0; }
        .items th, .items td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .items th { background-color: #f8f4ef; }
        .items .num { text-align: right; }
        .totals { float: right; width: 260px; }
        .totals td { padding: 6px; }
        .totals .amount { text-align: right; }
        .total-row { font-size: 16px; font-weight: bold; border-top: 2px solid #333; }
        .badge { padding: 3px 6px; border-radius: 4px; font-size: 11px; font-weight: bold; text-transform: uppercase; }
        .paid { background-color: #dcfce7; color: #166534; }
        .pending { background-color: #fef3c7; color: #92400e; }
        .footer { clear: both; margin-top: 40px; padding-top: 16px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 11px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">{{.Company.Name}}</div>
        {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
        {{if .Company.Phone}}<div>Phone: {{.Company.Phone}}</div>{{end}}
        {{if .Company.Email}}<div>Email: {{.Company.Email}}</div>{{end}}
    </div>

    <table class="meta">
        <tr><td class="label">Receipt #</td><td>{{.ReceiptNumber}}</td></tr>
        <tr><td class="label">Order #</td><td>{{.OrderNumber}}</td></tr>
        <tr><td class="label">Order date</td><td>{{.OrderDate}}</td></tr>
        <tr><td class="label">Issued</td><td>{{.IssuedAt}}</td></tr>
        <tr><td class="label">Customer</td><td>{{.CustomerEmail}}</td></tr>
        <tr><td class="label">Deliver to</td><td>{{.ShippingAddress}}</td></tr>
        <tr><td class="label">Status</td><td>{{.Status}}</td></tr>
        <tr><td class="label">Payment</td><td>{{.PaymentMethod}}
            <span class="badge {{if .Paid}}paid{{else}}pending{{end}}">{{.PaymentStatus}}</span></td></tr>
    </table>

    <table class="items">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Price}}</td><td class="num">{{.Total}}</td></tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal</td><td class="amount">{{.Subtotal}}</td></tr>
        <tr><td>Shipping</td><td class="amount">{{.ShippingFee}}</td></tr>
        <tr class="total-row"><td>Total</td><td class="amount">{{.Total}}</td></tr>
    </table>

    <div class="footer">
        <p>Thank you for ordering with {{.Company.Name}}!</p>
    </div>
</body>
</html>
`
