package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos.
// Update toma el lock de la fila y reevalúa el gate de stock bajo con el valor nuevo.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner inventory.TxRunner
	alerter  billing.StockAlerter
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner inventory.TxRunner, alerter billing.StockAlerter) *ProductUseCase {
	return &ProductUseCase{
		repo:     repo,
		txRunner: txRunner,
		alerter:  alerter,
		now:      time.Now,
	}
}

// Create crea un producto. SKU duplicado -> domain.ErrDuplicate.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	threshold := entity.DefaultMinStockThreshold
	if in.MinStockThreshold != nil {
		threshold = *in.MinStockThreshold
	}
	now := uc.now()
	p := &entity.Product{
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Price:             in.Price,
		StockQuantity:     in.StockQuantity,
		MinStockThreshold: threshold,
		Category:          uc.normalizeCategory(in.Category),
		SKU:               strings.TrimSpace(in.SKU),
		BatchNo:           strings.TrimSpace(in.BatchNo),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	var err error
	if p.ManufacturingDate, err = parseDate("manufacturing_date", in.ManufacturingDate); err != nil {
		return nil, err
	}
	if p.ExpiryDate, err = parseDate("expiry_date", in.ExpiryDate); err != nil {
		return nil, err
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if p.SKU != "" {
		existing, err := uc.repo.GetBySKU(ctx, p.SKU)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicate
		}
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Resource: "Product", ID: id}
	}
	return toProductResponse(p), nil
}

// Update aplica un patch parcial validando cada campo presente. Un cambio de stock
// queda en el kardex como ADJUSTMENT.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	patch, err := uc.buildPatch(in)
	if err != nil {
		return nil, err
	}

	var updated *entity.Product
	claimed := false
	err = uc.txRunner.Run(ctx, func(repo repository.ProductRepository, movRepo repository.InventoryMovementRepository, alertKeys alert.KeyStore) error {
		claimed = false
		locked, err := repo.GetForUpdate(ctx, []int64{id})
		if err != nil {
			return err
		}
		p := locked[id]
		if p == nil {
			return &domain.NotFoundError{Resource: "Product", ID: id}
		}
		if patch.SKU != nil && *patch.SKU != "" && *patch.SKU != p.SKU {
			other, err := repo.GetBySKU(ctx, *patch.SKU)
			if err != nil {
				return err
			}
			if other != nil && other.ID != id {
				return domain.ErrDuplicate
			}
		}
		before := p.StockQuantity
		patch.Apply(p)
		if err := validateProduct(p); err != nil {
			return err
		}
		p.UpdatedAt = uc.now()
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		if err := inventory.RegisterInTx(ctx, movRepo, p, inventory.StockChange{
			Type:      entity.MovementTypeADJUSTMENT,
			Delta:     p.StockQuantity - before,
			Reference: "manual",
		}, p.UpdatedAt); err != nil {
			return err
		}
		claimed = uc.alerter.ClaimLowStock(ctx, alertKeys, p)
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed {
		uc.alerter.PublishLowStock([]*entity.Product{updated.Clone()})
	}
	return toProductResponse(updated), nil
}

// List lista productos con búsqueda, categoría y paginación.
func (uc *ProductUseCase) List(ctx context.Context, in dto.ProductListRequest) (*dto.ProductListResponse, error) {
	in.PageRequest.Normalize(50, 100)
	list, total, err := uc.repo.List(ctx, entity.ProductFilter{
		Search:   strings.TrimSpace(in.Search),
		Category: strings.TrimSpace(in.Category),
		Limit:    in.Limit,
		Offset:   in.Offset(),
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Products:   items,
		Pagination: dto.NewPagination(in.PageRequest, total),
	}, nil
}

// Categories lista las categorías distintas.
func (uc *ProductUseCase) Categories(ctx context.Context) ([]string, error) {
	cats, err := uc.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// Autocomplete hasta 10 productos cuyo nombre contiene q.
func (uc *ProductUseCase) Autocomplete(ctx context.Context, q string) ([]dto.ProductSuggestion, error) {
	q = strings.TrimSpace(q)
	out := []dto.ProductSuggestion{}
	if q == "" {
		return out, nil
	}
	list, err := uc.repo.SearchNames(ctx, q, 10)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out = append(out, dto.ProductSuggestion{ID: p.ID, Name: p.Name, Category: p.Category})
	}
	return out, nil
}

// Delete elimina un producto. Si hay facturas que lo referencian -> domain.ErrProductInUse.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &domain.NotFoundError{Resource: "Product", ID: id}
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) buildPatch(in dto.UpdateProductRequest) (entity.ProductPatch, error) {
	patch := entity.ProductPatch{
		Price:             in.Price,
		StockQuantity:     in.StockQuantity,
		MinStockThreshold: in.MinStockThreshold,
	}
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return patch, domain.Invalid("name must not be empty")
		}
		patch.Name = &v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		patch.Description = &v
	}
	if in.Category != nil {
		v := uc.normalizeCategory(*in.Category)
		patch.Category = &v
	}
	if in.SKU != nil {
		v := strings.TrimSpace(*in.SKU)
		patch.SKU = &v
	}
	if in.BatchNo != nil {
		v := strings.TrimSpace(*in.BatchNo)
		patch.BatchNo = &v
	}
	if in.ManufacturingDate != nil {
		d, err := parseDate("manufacturing_date", *in.ManufacturingDate)
		if err != nil {
			return patch, err
		}
		patch.ManufacturingDate = d
	}
	if in.ExpiryDate != nil {
		d, err := parseDate("expiry_date", *in.ExpiryDate)
		if err != nil {
			return patch, err
		}
		patch.ExpiryDate = d
		patch.ClearExpiryDate = d == nil
	}
	return patch, nil
}

// normalizeCategory "soft drinks" -> "Soft Drinks". Caser no es seguro entre goroutines.
func (uc *ProductUseCase) normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return ""
	}
	return cases.Title(language.English).String(c)
}

func validateProduct(p *entity.Product) error {
	switch {
	case p.Name == "":
		return domain.Invalid("Name and price are required")
	case p.Price.LessThan(decimal.Zero):
		return domain.Invalid("price must be >= 0")
	case p.StockQuantity < 0:
		return domain.Invalid("stock_quantity must be >= 0")
	case p.MinStockThreshold < 0:
		return domain.Invalid("min_stock_threshold must be >= 0")
	}
	if p.ManufacturingDate != nil && p.ExpiryDate != nil && p.ExpiryDate.Before(*p.ManufacturingDate) {
		return domain.Invalid("expiry_date must not be before manufacturing_date")
	}
	return nil
}

func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	// el frontend a veces envía el timestamp completo
	if len(s) > len(dto.DateLayout) {
		s = s[:len(dto.DateLayout)]
	}
	t, err := time.ParseInLocation(dto.DateLayout, s, time.Local)
	if err != nil {
		return nil, domain.Invalid("%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dto.DateLayout)
	return &s
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		StockQuantity:     p.StockQuantity,
		MinStockThreshold: p.MinStockThreshold,
		Category:          p.Category,
		SKU:               p.SKU,
		BatchNo:           p.BatchNo,
		ManufacturingDate: formatDate(p.ManufacturingDate),
		ExpiryDate:        formatDate(p.ExpiryDate),
		LowStock:          p.IsLowStock(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
