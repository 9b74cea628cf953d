package billing

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con repos de productos,
// facturas y movimientos, y el KeyStore de alertas de esa misma transacción. Si fn
// retorna error (o el commit falla) se hace rollback y ningún cambio es visible, marcas
// de alertas incluidas; las marcas se deshacen antes de soltar los locks de las filas.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		billRepo repository.BillRepository,
		movementRepo repository.InventoryMovementRepository,
		alertKeys alert.KeyStore,
	) error) error
}

// StockAlerter integra la facturación con el gate de notificaciones.
// ClaimLowStock corre dentro de la transacción, bajo el lock de la fila del producto,
// con el KeyStore de la transacción; sus errores se registran y nunca abortan la venta.
type StockAlerter interface {
	ClaimLowStock(ctx context.Context, keys alert.KeyStore, product *entity.Product) bool
	// PublishLowStock entrega las alertas al despachador sin bloquear al llamador.
	PublishLowStock(products []*entity.Product)
}

// ReceiptPDFGenerator genera el comprobante imprimible de una factura.
type ReceiptPDFGenerator interface {
	GenerateBillPDF(ctx context.Context, bill *entity.Bill) ([]byte, error)
}
