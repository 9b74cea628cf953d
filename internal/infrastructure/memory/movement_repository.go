package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*MovementRepo)(nil)

// MovementRepo movimientos de inventario en memoria.
type MovementRepo struct {
	s  *Store
	tx bool
}

func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.seq.movement++
	m.ID = r.s.seq.movement
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now()
	}
	c := copyMovement(m)
	r.s.movements = append(r.s.movements, c)
	return nil
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID int64, from, to time.Time, limit, offset int) ([]*entity.InventoryMovement, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*entity.InventoryMovement
	for _, m := range r.s.movements {
		if m.ProductID != productID {
			continue
		}
		if !from.IsZero() && m.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !m.CreatedAt.Before(to) {
			continue
		}
		matched = append(matched, m)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	out := []*entity.InventoryMovement{}
	if offset >= total {
		return out, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	for _, m := range matched[offset:end] {
		out = append(out, copyMovement(m))
	}
	return out, total, nil
}

func copyMovement(m *entity.InventoryMovement) *entity.InventoryMovement {
	c := *m
	if m.BillID != nil {
		id := *m.BillID
		c.BillID = &id
	}
	return &c
}
