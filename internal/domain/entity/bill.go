package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
)

// BillStatus estado del ciclo de vida de una factura.
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusCompleted BillStatus = "completed"
	BillStatusCancelled BillStatus = "cancelled"
)

// ParseBillStatus valida un estado recibido del cliente.
func ParseBillStatus(s string) (BillStatus, error) {
	switch st := BillStatus(s); st {
	case BillStatusPending, BillStatusCompleted, BillStatusCancelled:
		return st, nil
	}
	return "", domain.Invalid("invalid status %q: must be pending, completed or cancelled", s)
}

// Terminal indica si el estado ya no admite transiciones.
func (s BillStatus) Terminal() bool {
	return s == BillStatusCompleted || s == BillStatusCancelled
}

// Bill cabecera de una venta. TotalAmount = suma de TotalPrice de sus líneas.
type Bill struct {
	ID          int64
	BillNumber  string
	UserID      int64
	Username    string // join con users, solo lectura
	TotalAmount decimal.Decimal
	Status      BillStatus
	Items       []*BillItem
	ItemCount   int // lo llena el listado, que no carga Items
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BillItem línea de factura con el precio congelado al momento de la venta.
type BillItem struct {
	ID          int64
	BillID      int64
	ProductID   int64
	ProductName string // join con products, solo lectura
	SKU         string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// TransitionTo valida el cambio de estado y devuelve si hay que reponer stock.
// pending -> pending es un no-op; desde un estado terminal no hay transiciones.
func (b *Bill) TransitionTo(target BillStatus) (restoreStock bool, err error) {
	if _, err := ParseBillStatus(string(target)); err != nil {
		return false, err
	}
	if b.Status.Terminal() {
		return false, &domain.TransitionError{From: string(b.Status), To: string(target)}
	}
	return b.Status == BillStatusPending && target == BillStatusCancelled, nil
}

// CanBeViewedBy reglas de acceso: el dueño o un manager.
func (b *Bill) CanBeViewedBy(userID int64, role string) bool {
	return role == RoleManager || b.UserID == userID
}

// BillFilter parámetros de listado de facturas.
type BillFilter struct {
	UserID   *int64
	Status   BillStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
