package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// CreateBillUseCase crea una factura y descuenta el stock en una sola transacción.
type CreateBillUseCase struct {
	txRunner BillingTxRunner
	alerter  StockAlerter
	log      *logger.Logger
	now      func() time.Time
}

// NewCreateBillUseCase construye el caso de uso.
func NewCreateBillUseCase(txRunner BillingTxRunner, alerter StockAlerter, log *logger.Logger) *CreateBillUseCase {
	return &CreateBillUseCase{
		txRunner: txRunner,
		alerter:  alerter,
		log:      log,
		now:      time.Now,
	}
}

// CreateBill valida las líneas, bloquea los productos, verifica stock de todas las
// líneas antes de modificar nada, persiste cabecera y detalle y descuenta el stock.
// Las alertas de stock bajo se marcan dentro de la transacción (un rollback las deshace)
// y se publican después del commit sin esperar la entrega.
func (uc *CreateBillUseCase) CreateBill(ctx context.Context, actor Actor, in dto.CreateBillRequest) (*dto.BillResponse, error) {
	requested, err := validateItems(in.Items)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var bill *entity.Bill
	var claimed []*entity.Product

	err = uc.txRunner.RunBilling(ctx, func(
		productRepo repository.ProductRepository,
		billRepo repository.BillRepository,
		movementRepo repository.InventoryMovementRepository,
		alertKeys alert.KeyStore,
	) error {
		claimed = nil

		// 1) Lock de filas en orden de id: dos ventas sobre el mismo producto se serializan
		products, err := productRepo.GetForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// 2) Todas las validaciones antes de la primera escritura
		for _, item := range in.Items {
			if products[item.ProductID] == nil {
				return &domain.NotFoundError{Resource: "Product", ID: item.ProductID}
			}
		}
		for _, item := range in.Items {
			p := products[item.ProductID]
			if p.StockQuantity < requested[item.ProductID] {
				return &domain.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.StockQuantity,
					Requested:   requested[item.ProductID],
				}
			}
		}

		// 3) Precios congelados y total
		now := uc.now()
		bill = &entity.Bill{
			BillNumber:  NewBillNumber(now),
			UserID:      actor.UserID,
			Username:    actor.Username,
			Status:      entity.BillStatusPending,
			TotalAmount: decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, item := range in.Items {
			p := products[item.ProductID]
			lineTotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			bill.Items = append(bill.Items, &entity.BillItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				SKU:         p.SKU,
				Quantity:    item.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  lineTotal,
			})
			bill.TotalAmount = bill.TotalAmount.Add(lineTotal)
		}
		bill.TotalAmount = bill.TotalAmount.Round(2)

		// 4) Persistencia y kardex
		if err := billRepo.Create(ctx, bill); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		for _, item := range bill.Items {
			item.BillID = bill.ID
			if err := billRepo.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
		}
		for _, id := range ids {
			if err := productRepo.AdjustStock(ctx, id, -requested[id]); err != nil {
				return fmt.Errorf("decrement stock of product %d: %w", id, err)
			}
			products[id].StockQuantity -= requested[id]
			if err := inventory.RegisterInTx(ctx, movementRepo, products[id], inventory.StockChange{
				Type:      entity.MovementTypeOUT,
				Delta:     -requested[id],
				BillID:    &bill.ID,
				Reference: bill.BillNumber,
				CreatedBy: actor.Username,
			}, now); err != nil {
				return err
			}
		}

		// 5) Check-and-mark del gate bajo el lock de las filas
		for _, id := range ids {
			p := products[id]
			if uc.alerter.ClaimLowStock(ctx, alertKeys, p) {
				claimed = append(claimed, p.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("bill_id", bill.ID).
		Str("bill_number", bill.BillNumber).
		Int64("user_id", actor.UserID).
		Str("total", bill.TotalAmount.StringFixed(2)).
		Int("low_stock_alerts", len(claimed)).
		Msg("factura creada")

	if len(claimed) > 0 {
		uc.alerter.PublishLowStock(claimed)
	}
	resp := toBillResponse(bill)
	return &resp, nil
}

// validateItems revisa la forma de la solicitud sin consultar la base y agrega
// cantidades por producto (varias líneas del mismo producto suman).
func validateItems(items []dto.BillItemRequest) (map[int64]int, error) {
	if len(items) == 0 {
		return nil, domain.Invalid("Items array is required and must not be empty")
	}
	requested := make(map[int64]int, len(items))
	for i, item := range items {
		if item.ProductID <= 0 {
			return nil, domain.Invalid("items[%d]: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return nil, domain.Invalid("items[%d]: quantity must be greater than 0", i)
		}
		requested[item.ProductID] += item.Quantity
	}
	return requested, nil
}

// NewBillNumber genera BILL-<unix ms>-<8 hex en mayúsculas>.
func NewBillNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("BILL-%d-%s", now.UnixMilli(), suffix)
}
