// Package seed carga usuarios y catálogo de demostración. Es idempotente:
// usuarios existentes (por username) y productos existentes (por SKU) se omiten.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// Repos destino de la carga.
type Repos struct {
	Users    repository.UserRepository
	Products repository.ProductRepository
}

// User usuario a crear con su password en claro.
type User struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Data conjunto a cargar.
type Data struct {
	Users    []User
	Products []entity.Product
	Cost     int // costo bcrypt; 0 = bcrypt.DefaultCost
}

// Result cuántos registros se crearon (los omitidos no cuentan).
type Result struct {
	Users    int
	Products int
}

// Demo usuarios por defecto y un catálogo de ejemplo. Algunos productos quedan
// bajo el umbral o cerca de vencer para que los barridos tengan algo que avisar.
func Demo() Data {
	now := time.Now()
	days := func(n int) *time.Time {
		t := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, n)
		return &t
	}
	p := func(name, desc, price string, stock int, category, sku string) entity.Product {
		return entity.Product{
			Name:              name,
			Description:       desc,
			Price:             decimal.RequireFromString(price),
			StockQuantity:     stock,
			MinStockThreshold: entity.DefaultMinStockThreshold,
			Category:          category,
			SKU:               sku,
		}
	}

	products := []entity.Product{
		p("Soap Bar", "Premium soap bar", "2.50", 100, "Personal Care", "SOAP001"),
		p("Soft Drink", "Carbonated soft drink", "1.25", 200, "Beverages", "DRINK001"),
		p("Soda Water", "Sparkling water", "1.00", 150, "Beverages", "SODA001"),
		p("Socks", "Cotton socks", "5.00", 80, "Clothing", "SOCK001"),
		p("Sunglasses", "UV protection sunglasses", "15.00", 50, "Accessories", "SUN001"),
		p("Shampoo", "Hair shampoo 250ml", "8.50", 75, "Personal Care", "SHAM001"),
		p("Sandwich", "Fresh sandwich", "4.50", 30, "Food", "SAND001"),
		p("Milk", "Fresh milk 1L", "3.20", 120, "Dairy", "MILK001"),
		p("Bread", "White bread loaf", "2.80", 90, "Bakery", "BREAD001"),
		p("Butter", "Salted butter 200g", "4.00", 60, "Dairy", "BUTT001"),
		p("Apple", "Fresh red apples per kg", "3.50", 200, "Fruits", "APPL001"),
		p("Banana", "Fresh bananas per kg", "2.20", 180, "Fruits", "BANA001"),
		p("Toothpaste", "Fluoride toothpaste", "3.75", 85, "Personal Care", "TOOTH001"),
		p("Tissue Box", "Facial tissues 200 sheets", "2.25", 110, "Household", "TISS001"),
		p("Chocolate Bar", "Milk chocolate bar", "1.80", 150, "Confectionery", "CHOC001"),
		p("Saffron", "Kashmiri saffron 1g", "249.99", 6, "Spices", "SAFF001"),
	}
	// perecederos con lote
	products[6].BatchNo, products[6].ManufacturingDate, products[6].ExpiryDate = "SAND-2401", days(-1), days(2)
	products[7].BatchNo, products[7].ManufacturingDate, products[7].ExpiryDate = "MILK-2407", days(-3), days(7)
	products[9].BatchNo, products[9].ManufacturingDate, products[9].ExpiryDate = "BUTT-2390", days(-30), days(60)

	return Data{
		Users: []User{
			{Username: "admin", Email: "admin@retailkpi.com", Password: "admin123", Role: entity.RoleManager},
			{Username: "cashier1", Email: "cashier1@retailkpi.com", Password: "cashier123", Role: entity.RoleUser},
			{Username: "manager1", Email: "manager1@retailkpi.com", Password: "manager123", Role: entity.RoleManager},
		},
		Products: products,
	}
}

// Run inserta lo que falte de data.
func Run(ctx context.Context, repos Repos, data Data) (Result, error) {
	var res Result
	cost := data.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	now := time.Now()

	for _, u := range data.Users {
		existing, err := repos.Users.FindByLogin(ctx, u.Username)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if existing != nil {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		err = repos.Users.Create(ctx, &entity.User{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			Role:         u.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		res.Users++
	}

	for i := range data.Products {
		p := data.Products[i]
		if p.SKU != "" {
			existing, err := repos.Products.GetBySKU(ctx, p.SKU)
			if err != nil {
				return res, fmt.Errorf("seed product %s: %w", p.SKU, err)
			}
			if existing != nil {
				continue
			}
		}
		p.CreatedAt, p.UpdatedAt = now, now
		if err := repos.Products.Create(ctx, &p); err != nil {
			return res, fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		res.Products++
	}
	return res, nil
}
