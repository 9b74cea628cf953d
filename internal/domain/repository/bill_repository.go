package repository

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
)

// BillRepository define el puerto de persistencia para Bill y sus líneas.
type BillRepository interface {
	// Create inserta la cabecera y asigna ID; las líneas se insertan con CreateItem.
	Create(ctx context.Context, bill *entity.Bill) error
	CreateItem(ctx context.Context, item *entity.BillItem) error
	GetByID(ctx context.Context, id int64) (*entity.Bill, error)
	// GetForUpdate bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Bill, error)
	GetItems(ctx context.Context, billID int64) ([]*entity.BillItem, error)
	UpdateStatus(ctx context.Context, id int64, status entity.BillStatus) error
	List(ctx context.Context, filter entity.BillFilter) ([]*entity.Bill, int, error)
}
