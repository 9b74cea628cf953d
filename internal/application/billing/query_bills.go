package billing

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// Actor usuario autenticado que ejecuta la operación (viene del JWT).
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

// IsManager indica si el actor tiene rol manager.
func (a Actor) IsManager() bool { return a.Role == entity.RoleManager }

// BillQueryUseCase lecturas de facturas con las reglas de visibilidad por rol.
type BillQueryUseCase struct {
	billRepo repository.BillRepository
}

// NewBillQueryUseCase construye el caso de uso.
func NewBillQueryUseCase(billRepo repository.BillRepository) *BillQueryUseCase {
	return &BillQueryUseCase{billRepo: billRepo}
}

// List lista facturas. Un usuario sin rol manager solo ve las propias y no puede filtrar por user_id.
func (uc *BillQueryUseCase) List(ctx context.Context, actor Actor, in dto.BillListRequest) (*dto.BillListResponse, error) {
	in.PageRequest.Normalize(20, 100)
	filter := entity.BillFilter{Limit: in.Limit, Offset: in.Offset()}

	if in.Status != "" {
		st, err := entity.ParseBillStatus(in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	switch {
	case !actor.IsManager():
		uid := actor.UserID
		filter.UserID = &uid
	case in.UserID > 0:
		uid := in.UserID
		filter.UserID = &uid
	}
	from, to, err := dto.ParseDateRange(in.DateFrom, in.DateTo)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		filter.DateFrom = &from
	}
	if !to.IsZero() {
		filter.DateTo = &to
	}

	bills, total, err := uc.billRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.BillListResponse{
		Bills:      make([]dto.BillResponse, 0, len(bills)),
		Pagination: dto.NewPagination(in.PageRequest, total),
	}
	for _, b := range bills {
		out.Bills = append(out.Bills, toBillResponse(b))
	}
	return out, nil
}

// Get devuelve la factura con sus líneas (nombre y SKU del producto incluidos).
func (uc *BillQueryUseCase) Get(ctx context.Context, actor Actor, id int64) (*dto.BillResponse, error) {
	bill, err := uc.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toBillResponse(bill)
	return &resp, nil
}

func (uc *BillQueryUseCase) load(ctx context.Context, actor Actor, id int64) (*entity.Bill, error) {
	bill, err := uc.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, &domain.NotFoundError{Resource: "Bill", ID: id}
	}
	if !bill.CanBeViewedBy(actor.UserID, actor.Role) {
		return nil, domain.ErrForbidden
	}
	items, err := uc.billRepo.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	bill.Items = items
	return bill, nil
}

func toBillResponse(b *entity.Bill) dto.BillResponse {
	resp := dto.BillResponse{
		ID:          b.ID,
		BillNumber:  b.BillNumber,
		UserID:      b.UserID,
		Username:    b.Username,
		TotalAmount: b.TotalAmount,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		ItemCount:   b.ItemCount,
	}
	if len(b.Items) > 0 {
		resp.ItemCount = len(b.Items)
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, dto.BillItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return resp
}
