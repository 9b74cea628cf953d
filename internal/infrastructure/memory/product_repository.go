package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository. Devuelve copias.
type ProductRepo struct {
	s  *Store
	tx bool
}

// Create asigna ID y persiste. SKU repetido -> domain.ErrDuplicate.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.SKU != "" && r.s.skuTaken(p.SKU, 0) {
		return domain.ErrDuplicate
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("insert product: negative stock")
	}
	r.s.seq.product++
	p.ID = r.s.seq.product
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.now()
		p.UpdatedAt = p.CreatedAt
	}
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.products[id].Clone(), nil
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.SKU != "" && p.SKU == sku {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

// GetForUpdate dentro de una transacción txMu ya está tomado, así que las filas
// quedan "bloqueadas" hasta el commit.
func (r *ProductRepo) GetForUpdate(_ context.Context, ids []int64) (map[int64]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[int64]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.products[p.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "Product", ID: p.ID}
	}
	if p.SKU != "" && r.s.skuTaken(p.SKU, p.ID) {
		return domain.ErrDuplicate
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("update product %d: negative stock", p.ID)
	}
	c := p.Clone()
	c.CreatedAt = cur.CreatedAt
	r.s.products[p.ID] = c
	return nil
}

// AdjustStock equivalente al CHECK (stock_quantity >= 0) de la tabla.
func (r *ProductRepo) AdjustStock(_ context.Context, id int64, delta int) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return &domain.NotFoundError{Resource: "Product", ID: id}
	}
	if p.StockQuantity+delta < 0 {
		return fmt.Errorf("adjust stock of product %d: %w", id, domain.ErrInsufficientStock)
	}
	p.StockQuantity += delta
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *ProductRepo) List(_ context.Context, f entity.ProductFilter) ([]*entity.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []*entity.Product
	for _, p := range r.s.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		matched = append(matched, p)
	}
	sortProducts(matched)
	total := len(matched)
	return paginate(matched, f.Offset, f.Limit), total, nil
}

func (r *ProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, 0, 0), nil
}

func (r *ProductRepo) Categories(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, p := range r.s.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ProductRepo) SearchNames(_ context.Context, q string, limit int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q = strings.ToLower(q)
	var matched []*entity.Product
	for _, p := range r.s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched)
	return paginate(matched, 0, limit), nil
}

// Delete rechaza productos referenciados por líneas de factura (FK sin cascada).
// Sus movimientos de inventario se borran en cascada.
func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	defer r.s.writeLock(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, items := range r.s.items {
		for _, it := range items {
			if it.ProductID == id {
				return domain.ErrProductInUse
			}
		}
	}
	delete(r.s.products, id)
	kept := r.s.movements[:0:0]
	for _, m := range r.s.movements {
		if m.ProductID != id {
			kept = append(kept, m)
		}
	}
	r.s.movements = kept
	return nil
}

// skuTaken requiere s.mu tomado.
func (s *Store) skuTaken(sku string, exceptID int64) bool {
	for _, p := range s.products {
		if p.ID != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}

func sortProducts(list []*entity.Product) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

// paginate clona la ventana pedida; limit <= 0 devuelve todo desde offset.
func paginate(list []*entity.Product, offset, limit int) []*entity.Product {
	if offset >= len(list) {
		return []*entity.Product{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entity.Product, 0, end-offset)
	for _, p := range list[offset:end] {
		out = append(out, p.Clone())
	}
	return out
}
