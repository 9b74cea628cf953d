package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinStockThreshold umbral de stock bajo cuando el producto no define uno.
const DefaultMinStockThreshold = 10

// Product representa un artículo del catálogo con su stock disponible.
// StockQuantity nunca es negativo: la facturación valida antes de descontar.
type Product struct {
	ID                int64
	Name              string
	Description       string
	Price             decimal.Decimal
	StockQuantity     int
	MinStockThreshold int
	Category          string
	SKU               string // opcional, único si está presente
	BatchNo           string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsLowStock indica si el stock está en o por debajo del umbral.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockThreshold
}

// Clone copia el producto (incluidas las fechas apuntadas).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.ManufacturingDate != nil {
		d := *p.ManufacturingDate
		c.ManufacturingDate = &d
	}
	if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		c.ExpiryDate = &d
	}
	return &c
}

// ProductPatch actualización parcial: solo los campos no nil se aplican.
type ProductPatch struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	StockQuantity     *int
	MinStockThreshold *int
	Category          *string
	SKU               *string
	BatchNo           *string
	ManufacturingDate *time.Time
	ExpiryDate        *time.Time
	ClearExpiryDate   bool
}

// Apply aplica el patch sobre p. La validación de valores la hace el caso de uso.
func (pt ProductPatch) Apply(p *Product) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.StockQuantity != nil {
		p.StockQuantity = *pt.StockQuantity
	}
	if pt.MinStockThreshold != nil {
		p.MinStockThreshold = *pt.MinStockThreshold
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	if pt.SKU != nil {
		p.SKU = *pt.SKU
	}
	if pt.BatchNo != nil {
		p.BatchNo = *pt.BatchNo
	}
	if pt.ManufacturingDate != nil {
		d := *pt.ManufacturingDate
		p.ManufacturingDate = &d
	}
	if pt.ClearExpiryDate {
		p.ExpiryDate = nil
	} else if pt.ExpiryDate != nil {
		d := *pt.ExpiryDate
		p.ExpiryDate = &d
	}
}

// ProductFilter parámetros de listado.
type ProductFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}
