package repository

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos que devuelven un único producto retornan (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea las filas indicadas (orden ascendente de id) hasta el fin de la transacción.
	// Los ids inexistentes simplemente no aparecen en el mapa.
	GetForUpdate(ctx context.Context, ids []int64) (map[int64]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// AdjustStock suma delta al stock (negativo para descontar).
	AdjustStock(ctx context.Context, id int64, delta int) error
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, int, error)
	ListAll(ctx context.Context) ([]*entity.Product, error)
	Categories(ctx context.Context) ([]string, error)
	SearchNames(ctx context.Context, q string, limit int) ([]*entity.Product, error)
	Delete(ctx context.Context, id int64) error
}
