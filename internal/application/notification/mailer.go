// Package notification entrega las alertas de inventario a los managers.
//
// El flujo es: el gate decide (dentro de la transacción de la venta), Service resuelve
// destinatarios fuera de la petición y Dispatcher envía un correo por destinatario en
// workers propios. Los fallos se registran y no se reintentan.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tipo de correo.
type Kind string

const (
	KindLowStock Kind = "low_stock"
	KindExpiry   Kind = "expiry"
	KindTest     Kind = "test"
)

// LowStockPayload datos del correo de stock bajo.
type LowStockPayload struct {
	ProductID int64
	Name      string
	SKU       string
	Category  string
	Stock     int
	Threshold int
	Price     decimal.Decimal
}

// ExpiryPayload datos del correo de vencimiento próximo.
type ExpiryPayload struct {
	ProductID  int64
	Name       string
	SKU        string
	BatchNo    string
	ExpiryDate time.Time
	DaysLeft   int
	Stock      int
}

// TestPayload datos del correo de prueba de configuración.
type TestPayload struct {
	RequestedBy string
	SentAt      time.Time
}

// Delivery un correo para un único destinatario.
type Delivery struct {
	Kind    Kind
	To      string
	Payload any
}

// Mailer transporte de correo (SMTP o solo log).
type Mailer interface {
	Send(ctx context.Context, d Delivery) error
}

// MailerFunc adapta una función a Mailer.
type MailerFunc func(ctx context.Context, d Delivery) error

func (f MailerFunc) Send(ctx context.Context, d Delivery) error { return f(ctx, d) }
