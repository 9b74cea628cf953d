package inventory

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// alertKeys reclama claves de alerta que se deshacen si la tx no confirma.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.InventoryMovementRepository,
		alertKeys alert.KeyStore,
	) error) error
}
