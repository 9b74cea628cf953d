// Package email renderiza y envía los correos de alertas (SMTP con gomail o solo log).
package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
)

// Message correo ya renderizado.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

type view struct {
	Name       string
	SKU        string
	Category   string
	Stock      int
	Threshold  int
	Price      string
	BatchNo    string
	ExpiryDate string
	DaysLeft   int
	By         string
	SentAt     string
}

const lowStockText = `Stock Alert – "{{.Name}}" is running low

The current stock for {{.Name}} has dropped to or below the minimum threshold. Please restock soon.

Product Details:
- Product Name: {{.Name}}
- SKU: {{.SKU}}
- Category: {{.Category}}
- Current Stock: {{.Stock}} units
- Minimum Threshold: {{.Threshold}} units
- Price: {{.Price}}

---
This is an automated notification from your Retail KPI Management System.
`

const lowStockHTML = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #dc2626;">Low Stock Alert</h2>
<p>The current stock for <strong>{{.Name}}</strong> has dropped to or below the minimum threshold.</p>
<table cellpadding="6">
<tr><td><b>Product Name</b></td><td>{{.Name}}</td></tr>
<tr><td><b>SKU</b></td><td>{{.SKU}}</td></tr>
<tr><td><b>Category</b></td><td>{{.Category}}</td></tr>
<tr><td><b>Current Stock</b></td><td style="color: #dc2626;">{{.Stock}} units</td></tr>
<tr><td><b>Minimum Threshold</b></td><td>{{.Threshold}} units</td></tr>
<tr><td><b>Price</b></td><td>{{.Price}}</td></tr>
</table>
<p style="font-size: 12px; color: #6b7280;">This is an automated notification from your Retail KPI Management System.</p>
</body></html>`

const expiryText = `Product Expiry Alert – "{{.Name}}" (Batch: {{.BatchNo}})

The product {{.Name}} (Batch: {{.BatchNo}}) will expire in {{.DaysLeft}} days.

Product Details:
- Product Name: {{.Name}}
- SKU: {{.SKU}}
- Batch Number: {{.BatchNo}}
- Expiry Date: {{.ExpiryDate}}
- Days Until Expiry: {{.DaysLeft}} days
- Current Stock: {{.Stock}} units

---
This is an automated notification from your Retail KPI Management System.
`

const expiryHTML = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2 style="color: #f59e0b;">Product Expiry Alert</h2>
<p>The product <strong>{{.Name}}</strong> (Batch: {{.BatchNo}}) will expire in <b>{{.DaysLeft}} days</b>.</p>
<table cellpadding="6">
<tr><td><b>SKU</b></td><td>{{.SKU}}</td></tr>
<tr><td><b>Batch Number</b></td><td>{{.BatchNo}}</td></tr>
<tr><td><b>Expiry Date</b></td><td style="color: #dc2626;">{{.ExpiryDate}}</td></tr>
<tr><td><b>Current Stock</b></td><td>{{.Stock}} units</td></tr>
</table>
<p style="font-size: 12px; color: #6b7280;">This is an automated notification from your Retail KPI Management System.</p>
</body></html>`

const testText = `Test Email

This is a test email from your Retail KPI Management System, requested by {{.By}} at {{.SentAt}}.
If you received this email, your email configuration is working correctly.
`

const testHTML = `<h2>Test Email</h2>
<p>This is a test email from your Retail KPI Management System, requested by {{.By}} at {{.SentAt}}.</p>
<p>If you received this email, your email configuration is working correctly.</p>`

type templatePair struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

var templates = map[notification.Kind]templatePair{
	notification.KindLowStock: {
		text: texttemplate.Must(texttemplate.New("low_stock").Parse(lowStockText)),
		html: htmltemplate.Must(htmltemplate.New("low_stock").Parse(lowStockHTML)),
	},
	notification.KindExpiry: {
		text: texttemplate.Must(texttemplate.New("expiry").Parse(expiryText)),
		html: htmltemplate.Must(htmltemplate.New("expiry").Parse(expiryHTML)),
	},
	notification.KindTest: {
		text: texttemplate.Must(texttemplate.New("test").Parse(testText)),
		html: htmltemplate.Must(htmltemplate.New("test").Parse(testHTML)),
	},
}

// Render arma asunto y cuerpos del correo según el tipo de entrega.
func Render(d notification.Delivery) (*Message, error) {
	var (
		subject string
		v       view
	)
	switch p := d.Payload.(type) {
	case notification.LowStockPayload:
		subject = fmt.Sprintf("Stock Alert – %q is running low", p.Name)
		v = view{
			Name: p.Name, SKU: orNA(p.SKU), Category: orNA(p.Category),
			Stock: p.Stock, Threshold: p.Threshold, Price: FormatRupees(p.Price),
		}
	case notification.ExpiryPayload:
		subject = fmt.Sprintf("Product Expiry Alert – %q (Batch: %s)", p.Name, orNA(p.BatchNo))
		v = view{
			Name: p.Name, SKU: orNA(p.SKU), BatchNo: orNA(p.BatchNo), Stock: p.Stock,
			ExpiryDate: p.ExpiryDate.Format("02 Jan 2006"), DaysLeft: p.DaysLeft,
		}
	case notification.TestPayload:
		subject = "Test Email from Retail KPI System"
		v = view{By: p.RequestedBy, SentAt: p.SentAt.Format(time.RFC1123)}
	default:
		return nil, fmt.Errorf("email: payload %T no soportado", d.Payload)
	}

	tpl, ok := templates[d.Kind]
	if !ok {
		return nil, fmt.Errorf("email: tipo %q sin plantilla", d.Kind)
	}
	var text, html bytes.Buffer
	if err := tpl.text.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("email: render text %s: %w", d.Kind, err)
	}
	if err := tpl.html.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("email: render html %s: %w", d.Kind, err)
	}
	return &Message{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

// FormatRupees precio con separador de miles: ₹1,234.50.
func FormatRupees(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("₹%.2f", d.InexactFloat64())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
