package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo implementación en memoria de BillRepository.
type BillRepo struct {
	s  *Store
	tx bool
}

func (r *BillRepo) Create(_ context.Context, b *entity.Bill) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.bills {
		if other.BillNumber == b.BillNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.seq.bill++
	b.ID = r.s.seq.bill
	c := *b
	c.Items = nil
	r.s.bills[b.ID] = &c
	return nil
}

func (r *BillRepo) CreateItem(_ context.Context, it *entity.BillItem) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bills[it.BillID]; !ok {
		return &domain.NotFoundError{Resource: "Bill", ID: it.BillID}
	}
	if _, ok := r.s.products[it.ProductID]; !ok {
		return &domain.NotFoundError{Resource: "Product", ID: it.ProductID}
	}
	r.s.seq.item++
	it.ID = r.s.seq.item
	c := *it
	r.s.items[it.BillID] = append(r.s.items[it.BillID], &c)
	return nil
}

func (r *BillRepo) GetByID(_ context.Context, id int64) (*entity.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.billCopy(id), nil
}

func (r *BillRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Bill, error) {
	return r.GetByID(ctx, id)
}

// GetItems devuelve las líneas con nombre y SKU actuales del producto.
func (r *BillRepo) GetItems(_ context.Context, billID int64) ([]*entity.BillItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.items[billID]
	out := make([]*entity.BillItem, 0, len(list))
	for _, it := range list {
		c := *it
		if p, ok := r.s.products[it.ProductID]; ok {
			c.ProductName = p.Name
			c.SKU = p.SKU
		}
		out = append(out, &c)
	}
	return out, nil
}

func (r *BillRepo) UpdateStatus(_ context.Context, id int64, status entity.BillStatus) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bills[id]
	if !ok {
		return &domain.NotFoundError{Resource: "Bill", ID: id}
	}
	b.Status = status
	b.UpdatedAt = r.s.now()
	return nil
}

// List ordena por fecha de creación descendente.
func (r *BillRepo) List(_ context.Context, f entity.BillFilter) ([]*entity.Bill, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*entity.Bill
	for _, b := range r.s.bills {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.DateFrom != nil && b.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !b.CreatedAt.Before(*f.DateTo) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := len(matched)
	if f.Offset >= total {
		return []*entity.Bill{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	out := make([]*entity.Bill, 0, end-f.Offset)
	for _, b := range matched[f.Offset:end] {
		out = append(out, r.s.billCopy(b.ID))
	}
	return out, total, nil
}

// billCopy requiere s.mu tomado.
func (s *Store) billCopy(id int64) *entity.Bill {
	b, ok := s.bills[id]
	if !ok {
		return nil
	}
	c := *b
	c.Items = nil
	c.ItemCount = len(s.items[id])
	if u, ok := s.users[b.UserID]; ok {
		c.Username = u.Username
	}
	return &c
}
