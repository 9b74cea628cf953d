package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// StockChange cambio de stock ya aplicado sobre un producto bloqueado.
type StockChange struct {
	Type      string
	Delta     int
	BillID    *int64
	Reference string
	CreatedBy string
}

// RegisterInTx guarda el movimiento usando el repo de la transacción del caller.
// product debe reflejar el stock después del cambio. Delta 0 no registra nada.
func RegisterInTx(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	product *entity.Product,
	change StockChange,
	now time.Time,
) error {
	if change.Delta == 0 {
		return nil
	}
	mov := &entity.InventoryMovement{
		ProductID:  product.ID,
		BillID:     change.BillID,
		Type:       change.Type,
		Quantity:   change.Delta,
		StockAfter: product.StockQuantity,
		Reference:  change.Reference,
		CreatedBy:  change.CreatedBy,
		CreatedAt:  now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return fmt.Errorf("register %s movement of product %d: %w", change.Type, product.ID, err)
	}
	return nil
}
