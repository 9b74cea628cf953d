package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner = (*TxRunner)(nil)
	_ inventory.TxRunner      = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	keys alert.KeyStore
}

// NewTxRunner construye el runner con el pool. Con keys nil las claves de alerta
// viven en notification_keys y se escriben con la misma tx; si no, se usa keys a través
// de un alert.Journal que se deshace cuando la tx falla.
func NewTxRunner(pool *pgxpool.Pool, keys alert.KeyStore) *TxRunner {
	return &TxRunner{pool: pool, keys: keys}
}

// Run transacción con repos de productos y movimientos (edición de producto con bloqueo de fila).
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.InventoryMovementRepository,
	alertKeys alert.KeyStore,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx, keys alert.KeyStore) error {
		return fn(NewProductRepository(tx), NewInventoryMovementRepository(tx), keys)
	})
}

// RunBilling transacción con repos de productos y facturas (alta y cambio de estado de factura).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	billRepo repository.BillRepository,
	movementRepo repository.InventoryMovementRepository,
	alertKeys alert.KeyStore,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx, keys alert.KeyStore) error {
		return fn(NewProductRepository(tx), NewBillRepository(tx), NewInventoryMovementRepository(tx), keys)
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx, keys alert.KeyStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.keys == nil {
		if err := fn(tx, NewAlertKeyStore(tx)); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}

	// el journal se deshace antes del rollback diferido, con las filas aún bloqueadas
	journal := alert.NewJournal(r.keys)
	if err := fn(tx, journal); err != nil {
		return undo(ctx, journal, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return undo(ctx, journal, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func undo(ctx context.Context, journal *alert.Journal, err error) error {
	if rbErr := journal.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		return errors.Join(err, fmt.Errorf("undo alert keys: %w", rbErr))
	}
	return err
}
