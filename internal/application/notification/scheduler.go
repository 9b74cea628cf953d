package notification

import (
	"context"
	"time"

	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// Sweeper barridos periódicos del catálogo.
type Sweeper interface {
	SweepLowStock(ctx context.Context) (int, error)
	SweepExpiry(ctx context.Context) (int, error)
}

// Scheduler corre ambos barridos tras un retardo inicial y luego cada interval.
type Scheduler struct {
	sweeper  Sweeper
	delay    time.Duration
	interval time.Duration
	log      *logger.Logger
}

// NewScheduler construye el scheduler. interval <= 0 deja solo la corrida inicial.
func NewScheduler(sweeper Sweeper, delay, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{sweeper: sweeper, delay: delay, interval: interval, log: log}
}

// Run bloquea hasta que ctx se cancela.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.RunOnce(ctx)

	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta los dos barridos y registra el resultado.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if n, err := s.sweeper.SweepExpiry(ctx); err != nil {
		s.log.Error().Err(err).Msg("barrido de vencimientos")
	} else {
		s.log.Info().Int("alerts", n).Msg("barrido de vencimientos completado")
	}
	if n, err := s.sweeper.SweepLowStock(ctx); err != nil {
		s.log.Error().Err(err).Msg("barrido de stock bajo")
	} else {
		s.log.Info().Int("alerts", n).Msg("barrido de stock bajo completado")
	}
}
