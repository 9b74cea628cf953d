package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// UpdateBillStatusUseCase aplica la máquina de estados pending -> completed | cancelled.
// Cancelar una factura pending repone el stock de cada línea en la misma transacción.
type UpdateBillStatusUseCase struct {
	txRunner BillingTxRunner
	alerter  StockAlerter
	log      *logger.Logger
	now      func() time.Time
}

// NewUpdateBillStatusUseCase construye el caso de uso.
func NewUpdateBillStatusUseCase(txRunner BillingTxRunner, alerter StockAlerter, log *logger.Logger) *UpdateBillStatusUseCase {
	return &UpdateBillStatusUseCase{txRunner: txRunner, alerter: alerter, log: log, now: time.Now}
}

// UpdateStatus cambia el estado de la factura. Solo el dueño o un manager pueden hacerlo.
func (uc *UpdateBillStatusUseCase) UpdateStatus(ctx context.Context, actor Actor, billID int64, status string) (*dto.BillResponse, error) {
	target, err := entity.ParseBillStatus(status)
	if err != nil {
		return nil, err
	}

	var bill *entity.Bill
	var claimed []*entity.Product
	restored := false

	err = uc.txRunner.RunBilling(ctx, func(
		productRepo repository.ProductRepository,
		billRepo repository.BillRepository,
		movementRepo repository.InventoryMovementRepository,
		alertKeys alert.KeyStore,
	) error {
		claimed = nil

		b, err := billRepo.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b == nil {
			return &domain.NotFoundError{Resource: "Bill", ID: billID}
		}
		if !b.CanBeViewedBy(actor.UserID, actor.Role) {
			return domain.ErrForbidden
		}
		restore, err := b.TransitionTo(target)
		if err != nil {
			return err
		}
		items, err := billRepo.GetItems(ctx, billID)
		if err != nil {
			return err
		}
		b.Items = items
		bill = b
		if b.Status == target {
			return nil
		}

		if restore {
			if claimed, err = uc.restoreStock(ctx, productRepo, movementRepo, alertKeys, b, actor, items); err != nil {
				return err
			}
			restored = true
		}
		if err := billRepo.UpdateStatus(ctx, billID, target); err != nil {
			return fmt.Errorf("update bill status: %w", err)
		}
		b.Status = target
		b.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("bill_id", bill.ID).
		Str("status", string(bill.Status)).
		Bool("stock_restored", restored).
		Int64("user_id", actor.UserID).
		Msg("estado de factura actualizado")

	if len(claimed) > 0 {
		uc.alerter.PublishLowStock(claimed)
	}
	resp := toBillResponse(bill)
	return &resp, nil
}

// restoreStock devuelve al inventario las cantidades de la factura, deja el movimiento IN
// en el kardex y reevalúa el gate: si el stock supera el umbral la clave se rearma.
func (uc *UpdateBillStatusUseCase) restoreStock(
	ctx context.Context,
	productRepo repository.ProductRepository,
	movementRepo repository.InventoryMovementRepository,
	alertKeys alert.KeyStore,
	bill *entity.Bill,
	actor Actor,
	items []*entity.BillItem,
) ([]*entity.Product, error) {
	qty := make(map[int64]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}
	ids := make([]int64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := productRepo.GetForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	var claimed []*entity.Product
	for _, id := range ids {
		if err := productRepo.AdjustStock(ctx, id, qty[id]); err != nil {
			return claimed, fmt.Errorf("restore stock of product %d: %w", id, err)
		}
		p := products[id]
		if p == nil {
			continue
		}
		p.StockQuantity += qty[id]
		if err := inventory.RegisterInTx(ctx, movementRepo, p, inventory.StockChange{
			Type:      entity.MovementTypeIN,
			Delta:     qty[id],
			BillID:    &bill.ID,
			Reference: bill.BillNumber,
			CreatedBy: actor.Username,
		}, uc.now()); err != nil {
			return claimed, err
		}
		if uc.alerter.ClaimLowStock(ctx, alertKeys, p) {
			claimed = append(claimed, p.Clone())
		}
	}
	return claimed, nil
}
