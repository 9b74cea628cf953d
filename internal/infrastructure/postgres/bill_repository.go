package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo persistencia de facturas y sus líneas.
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

const billSelect = `
	SELECT b.id, b.bill_number, b.user_id, COALESCE(u.username, ''), b.total_amount, b.status,
		(SELECT COUNT(*) FROM bill_items bi WHERE bi.bill_id = b.id), b.created_at, b.updated_at
	FROM bills b
	LEFT JOIN users u ON u.id = b.user_id`

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	var status string
	err := row.Scan(&b.ID, &b.BillNumber, &b.UserID, &b.Username, &b.TotalAmount, &status,
		&b.ItemCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = entity.BillStatus(status)
	return &b, nil
}

// Create inserta la cabecera y asigna ID.
func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO bills (bill_number, user_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		b.BillNumber, b.UserID, b.TotalAmount, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// CreateItem inserta una línea con el precio unitario congelado.
func (r *BillRepo) CreateItem(ctx context.Context, it *entity.BillItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO bill_items (bill_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		it.BillID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert bill item: %w", err)
	}
	return nil
}

// GetByID cabecera con username e item_count; (nil, nil) si no existe.
func (r *BillRepo) GetByID(ctx context.Context, id int64) (*entity.Bill, error) {
	b, err := scanBill(r.q.QueryRow(ctx, billSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// GetForUpdate bloquea la fila de bills (FOR UPDATE OF b, el join con users no se bloquea).
func (r *BillRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Bill, error) {
	b, err := scanBill(r.q.QueryRow(ctx, billSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock bill: %w", err)
	}
	return b, nil
}

// GetItems líneas de la factura con nombre y SKU del producto.
func (r *BillRepo) GetItems(ctx context.Context, billID int64) ([]*entity.BillItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT bi.id, bi.bill_id, bi.product_id, COALESCE(p.name, ''), COALESCE(p.sku, ''),
			bi.quantity, bi.unit_price, bi.total_price
		FROM bill_items bi
		LEFT JOIN products p ON p.id = bi.product_id
		WHERE bi.bill_id = $1
		ORDER BY bi.id`, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.BillItem, 0)
	for rows.Next() {
		var it entity.BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.ProductName, &it.SKU,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado y updated_at.
func (r *BillRepo) UpdateStatus(ctx context.Context, id int64, status entity.BillStatus) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE bills SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "Bill", ID: id}
	}
	return nil
}

// List filtra por usuario, estado y rango [DateFrom, DateTo), más recientes primero.
func (r *BillRepo) List(ctx context.Context, f entity.BillFilter) ([]*entity.Bill, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where = append(where, fmt.Sprintf("b.created_at >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where = append(where, fmt.Sprintf("b.created_at < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bills b`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	query := billSelect + clause + ` ORDER BY b.created_at DESC, b.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bill: %w", err)
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}
