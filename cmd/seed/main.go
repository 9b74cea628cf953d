// seed carga los usuarios por defecto y el catálogo de ejemplo en PostgreSQL.
// Aplica las migraciones pendientes antes de insertar. Es seguro correrlo varias veces.
//
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/application/seed"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-kpi-api/pkg/config"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) > 0 {
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}

	res, err := seed.Run(ctx, seed.Repos{
		Users:    postgres.NewUserRepository(pool),
		Products: postgres.NewProductRepository(pool),
	}, seed.Demo())
	if err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Int("users", res.Users).Int("products", res.Products).Msg("seed completado")
}
