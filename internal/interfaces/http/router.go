package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/retail-kpi-api/internal/application/analytics"
	"github.com/jhoicas/retail-kpi-api/internal/application/auth"
	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/internal/application/usecase"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	ProductUC    *usecase.ProductUseCase
	CreateBill   *billing.CreateBillUseCase
	BillQuery    *billing.BillQueryUseCase
	UpdateStatus *billing.UpdateBillStatusUseCase
	BillPDF      *billing.PDFUseCase
	AnalyticsUC  *usecase.AnalyticsUseCase
	SettingsUC   *usecase.SettingsUseCase
	UserUC       *usecase.UserUseCase
	Dashboard    *appanalytics.DashboardUseCase
	Movements    *inventory.MovementUseCase
	Replenish    *inventory.ReplenishmentUseCase
	Sweeper      notification.Sweeper
	LoginLimiter *RateLimiter // nil = sin límite
	JWTSecret    string
	StoreDriver  string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{
			Status: "OK",
			Store:  deps.StoreDriver,
			Time:   time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	loginChain := []fiber.Handler{}
	if deps.LoginLimiter != nil {
		loginChain = append(loginChain, deps.LoginLimiter.Handler())
	}
	api.Post("/auth/login", append(loginChain, authHandler.Login)...)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	managerOnly := RequireRole(entity.RoleManager)

	protected.Get("/auth/profile", authHandler.Profile)
	protected.Post("/auth/logout", authHandler.Logout)

	// Products: lectura para todos, escritura y barridos solo manager.
	// Las rutas fijas van antes de /:id.
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Sweeper, log)
	inventoryHandler := NewInventoryHandler(deps.Movements, deps.Replenish, log)
	products.Get("/", productHandler.List)
	products.Get("/autocomplete", productHandler.Autocomplete)
	products.Get("/meta/categories", productHandler.Categories)
	products.Get("/meta/replenishment", managerOnly, inventoryHandler.Replenishment)
	products.Post("/check-expiry", managerOnly, productHandler.CheckExpiry)
	products.Post("/check-low-stock", managerOnly, productHandler.CheckLowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/movements", managerOnly, inventoryHandler.Movements)
	products.Post("/", managerOnly, productHandler.Create)
	products.Put("/:id", managerOnly, productHandler.Update)
	products.Delete("/:id", managerOnly, productHandler.Delete)

	// Billing
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsUC, log)
	bills := protected.Group("/billing")
	billingHandler := NewBillingHandler(deps.CreateBill, deps.BillQuery, deps.UpdateStatus, deps.BillPDF, log)
	bills.Post("/", billingHandler.Create)
	bills.Get("/", billingHandler.List)
	bills.Get("/stats/summary", managerOnly, analyticsHandler.Summary)
	bills.Get("/:id", billingHandler.GetByID)
	bills.Get("/:id/pdf", billingHandler.DownloadPDF)
	bills.Patch("/:id/status", billingHandler.UpdateStatus)

	protected.Get("/trending", analyticsHandler.Trending)

	// Dashboard (solo manager)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, log)
	protected.Get("/dashboard/summary", managerOnly, dashboardHandler.GetSummary)

	// Manager settings (solo manager)
	settings := protected.Group("/manager-settings", managerOnly)
	settingsHandler := NewSettingsHandler(deps.SettingsUC, log)
	settings.Get("/", settingsHandler.Get)
	settings.Post("/", settingsHandler.Save)
	settings.Patch("/toggle-alerts", settingsHandler.ToggleAlerts)
	settings.Post("/test-email", settingsHandler.TestEmail)

	// Usuarios (solo manager)
	users := protected.Group("/users", managerOnly)
	userHandler := NewUserHandler(deps.UserUC, log)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
}
