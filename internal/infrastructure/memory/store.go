// Package memory implementa los puertos de persistencia en proceso (STORE_DRIVER=memory
// y tests). Las transacciones se serializan con txMu y hacen rollback restaurando una
// copia de los mapas; eso da el mismo aislamiento que SELECT ... FOR UPDATE para las
// operaciones de facturación.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var (
	_ billing.BillingTxRunner = (*Store)(nil)
	_ inventory.TxRunner      = (*Store)(nil)
)

// Store estado compartido por todos los repos en memoria.
type Store struct {
	txMu sync.Mutex   // serializa escritores (transacciones y escrituras sueltas)
	mu   sync.RWMutex // protege los mapas

	products map[int64]*entity.Product
	bills    map[int64]*entity.Bill
	items    map[int64][]*entity.BillItem // por bill_id
	users    map[int64]*entity.User
	settings map[int64]*entity.ManagerSettings // por user_id
	// movements en orden de inserción
	movements []*entity.InventoryMovement
	seq       sequences

	// claves de alerta reclamadas dentro de las transacciones
	keys alert.KeyStore

	now func() time.Time
}

type sequences struct {
	product, bill, item, user, settings, movement int64
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[int64]*entity.Product),
		bills:    make(map[int64]*entity.Bill),
		items:    make(map[int64][]*entity.BillItem),
		users:    make(map[int64]*entity.User),
		settings: make(map[int64]*entity.ManagerSettings),
		keys:     alert.NewMemoryKeyStore(),
		now:      time.Now,
	}
}

// UseAlertKeys cambia el KeyStore que reciben las transacciones (p. ej. Redis).
func (s *Store) UseAlertKeys(keys alert.KeyStore) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.keys = keys
}

// Products repo de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Bills repo de facturas fuera de transacción.
func (s *Store) Bills() *BillRepo { return &BillRepo{s: s} }

// Users repo de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Settings repo de preferencias de managers.
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{s: s} }

// Movements repo de movimientos de inventario fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Analytics repo de consultas agregadas.
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{s: s} }

// RunBilling ejecuta fn con repos atados a una transacción. Si fn falla se restaura el estado previo.
func (s *Store) RunBilling(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	billRepo repository.BillRepository,
	movementRepo repository.InventoryMovementRepository,
	alertKeys alert.KeyStore,
) error) error {
	return s.inTx(ctx, func(keys alert.KeyStore) error {
		return fn(&ProductRepo{s: s, tx: true}, &BillRepo{s: s, tx: true}, &MovementRepo{s: s, tx: true}, keys)
	})
}

// Run ejecuta fn con repos de productos y movimientos transaccionales.
func (s *Store) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.InventoryMovementRepository,
	alertKeys alert.KeyStore,
) error) error {
	return s.inTx(ctx, func(keys alert.KeyStore) error {
		return fn(&ProductRepo{s: s, tx: true}, &MovementRepo{s: s, tx: true}, keys)
	})
}

// inTx deshace el estado y las claves de alerta reclamadas antes de soltar txMu,
// así ninguna otra transacción ve una clave de una tx que no confirmó.
func (s *Store) inTx(ctx context.Context, fn func(keys alert.KeyStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	journal := alert.NewJournal(s.keys)
	err := fn(journal)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.restore(snap)
		if rbErr := journal.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// writeLock toma txMu para escrituras fuera de transacción.
func (s *Store) writeLock(tx bool) func() {
	if tx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	products  map[int64]*entity.Product
	bills     map[int64]*entity.Bill
	items     map[int64][]*entity.BillItem
	movements []*entity.InventoryMovement
	seq       sequences
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		products: make(map[int64]*entity.Product, len(s.products)),
		bills:    make(map[int64]*entity.Bill, len(s.bills)),
		items:    make(map[int64][]*entity.BillItem, len(s.items)),
		// los movimientos solo se agregan: basta con copiar el slice
		movements: append([]*entity.InventoryMovement(nil), s.movements...),
		seq:       s.seq,
	}
	for id, p := range s.products {
		snap.products[id] = p.Clone()
	}
	for id, b := range s.bills {
		c := *b
		snap.bills[id] = &c
	}
	for id, list := range s.items {
		cp := make([]*entity.BillItem, len(list))
		for i, it := range list {
			c := *it
			cp[i] = &c
		}
		snap.items[id] = cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.bills = snap.bills
	s.items = snap.items
	s.movements = snap.movements
	s.seq = snap.seq
}
