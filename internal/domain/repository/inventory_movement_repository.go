package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// ListByProduct más recientes primero. from/to en cero no acotan; to es exclusivo.
	ListByProduct(ctx context.Context, productID int64, from, to time.Time, limit, offset int) ([]*entity.InventoryMovement, int, error)
}
