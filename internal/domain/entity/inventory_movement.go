package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"         // reposición por cancelación de factura
	MovementTypeOUT        = "OUT"        // venta
	MovementTypeADJUSTMENT = "ADJUSTMENT" // edición manual del stock
)

// InventoryMovement un cambio de stock de un producto. Quantity lleva signo
// (negativo en salidas) y StockAfter es el stock resultante.
type InventoryMovement struct {
	ID         int64
	ProductID  int64
	BillID     *int64
	Type       string
	Quantity   int
	StockAfter int
	Reference  string // número de factura o "manual"
	CreatedBy  string // username
	CreatedAt  time.Time
}
