package inventory

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// MovementUseCase consulta el kardex de un producto.
type MovementUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(productRepo repository.ProductRepository, movRepo repository.InventoryMovementRepository) *MovementUseCase {
	return &MovementUseCase{productRepo: productRepo, movRepo: movRepo}
}

// ListByProduct movimientos del producto, más recientes primero.
func (uc *MovementUseCase) ListByProduct(ctx context.Context, productID int64, in dto.MovementListRequest) (*dto.MovementListResponse, error) {
	from, to, err := dto.ParseDateRange(in.DateFrom, in.DateTo)
	if err != nil {
		return nil, err
	}
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Resource: "Product", ID: productID}
	}

	in.PageRequest.Normalize(50, 200)
	list, total, err := uc.movRepo.ListByProduct(ctx, productID, from, to, in.Limit, in.Offset())
	if err != nil {
		return nil, err
	}
	out := &dto.MovementListResponse{
		ProductID:    p.ID,
		ProductName:  p.Name,
		CurrentStock: p.StockQuantity,
		Movements:    make([]dto.MovementResponse, 0, len(list)),
		Pagination:   dto.NewPagination(in.PageRequest, total),
	}
	for _, m := range list {
		out.Movements = append(out.Movements, toMovementResponse(m))
	}
	return out, nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:         m.ID,
		Type:       m.Type,
		Quantity:   m.Quantity,
		StockAfter: m.StockAfter,
		BillID:     m.BillID,
		Reference:  m.Reference,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
	}
}
