package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appanalytics "github.com/jhoicas/retail-kpi-api/internal/application/analytics"
	"github.com/jhoicas/retail-kpi-api/internal/application/auth"
	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/internal/application/seed"
	"github.com/jhoicas/retail-kpi-api/internal/application/usecase"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/email"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/retail-kpi-api/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/retail-kpi-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/retail-kpi-api/internal/interfaces/http"
	"github.com/jhoicas/retail-kpi-api/pkg/config"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// txRunner transacciones de facturación y de producto sobre el mismo store.
type txRunner interface {
	billing.BillingTxRunner
	inventory.TxRunner
}

type stores struct {
	products  repository.ProductRepository
	bills     repository.BillRepository
	users     repository.UserRepository
	settings  repository.SettingsRepository
	analytics repository.AnalyticsRepository
	movements repository.InventoryMovementRepository
	tx        txRunner
	closers   []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("alert_key_store", cfg.Alerts.KeyStore).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer st.close()

	// Alertas: gate -> servicio -> despachador -> mailer
	mailer := email.NewMailer(cfg.SMTP, log.Component("mailer"))
	dispatcher := notification.NewDispatcher(mailer, cfg.Alerts.Workers, cfg.Alerts.QueueSize, log.Component("dispatcher"))
	gate := alert.NewGate(cfg.Alerts.ExpiryWindowDays)
	alertSvc := notification.NewService(
		gate, st.products, st.tx,
		notification.NewRecipientDirectory(st.users, st.settings),
		dispatcher, log.Component("alerts"),
	)
	scheduler := notification.NewScheduler(alertSvc, cfg.Alerts.StartupDelay, cfg.Alerts.SweepInterval, log.Component("scheduler"))
	go scheduler.Run(ctx)

	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	productUC := usecase.NewProductUseCase(st.products, st.tx, alertSvc)
	createBillUC := billing.NewCreateBillUseCase(st.tx, alertSvc, log.Component("billing"))
	updateStatusUC := billing.NewUpdateBillStatusUseCase(st.tx, alertSvc, log.Component("billing"))
	billQueryUC := billing.NewBillQueryUseCase(st.bills)
	billPDFUC := billing.NewPDFUseCase(st.bills, infrapdf.NewMarotoPDFGenerator(cfg.App.StoreName))
	analyticsUC := usecase.NewAnalyticsUseCase(st.analytics)
	settingsUC := usecase.NewSettingsUseCase(st.settings, mailer)
	userUC := usecase.NewUserUseCase(st.users)
	movementUC := inventory.NewMovementUseCase(st.products, st.movements)
	replenishUC := inventory.NewReplenishmentUseCase(st.products, st.analytics)
	dashboardUC := appanalytics.NewDashboardUseCase(st.analytics, st.products, cfg.Alerts.ExpiryWindowDays)

	loginLimiter := httpRouter.NewRateLimiter(cfg.HTTP.LoginRatePerS, cfg.HTTP.LoginRateBurst)
	go loginLimiter.StartCleanupLoop(ctx, 5*time.Minute)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Retail KPI API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		ProductUC:    productUC,
		CreateBill:   createBillUC,
		BillQuery:    billQueryUC,
		UpdateStatus: updateStatusUC,
		BillPDF:      billPDFUC,
		AnalyticsUC:  analyticsUC,
		SettingsUC:   settingsUC,
		UserUC:       userUC,
		Dashboard:    dashboardUC,
		Movements:    movementUC,
		Replenish:    replenishUC,
		Sweeper:      alertSvc,
		LoginLimiter: loginLimiter,
		JWTSecret:    cfg.JWT.Secret,
		StoreDriver:  cfg.Store.Driver,
		Log:          log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()
	alertSvc.Wait()
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Interface("stats", dispatcher.Stats()).Msg("correos pendientes descartados al apagar")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores arma repositorios, transacciones y KeyStore según STORE_DRIVER y ALERT_KEY_STORE.
// Las transacciones reciben el KeyStore; con ALERT_KEY_STORE=postgres las claves se escriben en la misma tx.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	st := &stores{}

	var keys alert.KeyStore
	switch cfg.Alerts.KeyStore {
	case "redis":
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = rdb.Close() })
		keys = infraredis.NewKeyStore(rdb)
	case "memory":
		keys = alert.NewMemoryKeyStore()
		log.Info().Msg("marcas de alertas en memoria: se rearman al reiniciar")
	}

	switch cfg.Store.Driver {
	case "memory":
		mem := memory.NewStore()
		if keys != nil {
			mem.UseAlertKeys(keys)
		}
		st.products = mem.Products()
		st.bills = mem.Bills()
		st.users = mem.Users()
		st.settings = mem.Settings()
		st.analytics = mem.Analytics()
		st.movements = mem.Movements()
		st.tx = mem
		res, err := seed.Run(ctx, seed.Repos{Users: st.users, Products: st.products}, seed.Demo())
		if err != nil {
			st.close()
			return nil, err
		}
		log.Warn().Int("users", res.Users).Int("products", res.Products).
			Msg("store en memoria con datos demo: los cambios se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		if cfg.Store.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				st.close()
				return nil, err
			}
			log.Info().Strs("applied", applied).Msg("migraciones")
		}
		st.products = postgres.NewProductRepository(pool)
		st.bills = postgres.NewBillRepository(pool)
		st.users = postgres.NewUserRepository(pool)
		st.settings = postgres.NewSettingsRepository(pool)
		st.analytics = postgres.NewAnalyticsRepository(pool)
		st.movements = postgres.NewInventoryMovementRepository(pool)
		// keys es nil con ALERT_KEY_STORE=postgres: el runner usa notification_keys dentro de cada tx
		st.tx = postgres.NewTxRunner(pool, keys)
	}
	return st, nil
}
