package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/inventory"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

var _ billing.StockAlerter = (*Service)(nil)

// publishTimeout cota para resolver destinatarios de una publicación.
const publishTimeout = 15 * time.Second

// Enqueuer recibe entregas individuales (implementado por Dispatcher).
type Enqueuer interface {
	Enqueue(d Delivery) bool
}

// Service conecta el gate con el despachador: marca alertas, resuelve destinatarios
// y agenda un correo por destinatario. Implementa billing.StockAlerter.
type Service struct {
	gate       *alert.Gate
	products   repository.ProductRepository
	tx         inventory.TxRunner
	recipients *RecipientDirectory
	queue      Enqueuer
	log        *logger.Logger
	inflight   sync.WaitGroup
}

// NewService construye el servicio.
func NewService(
	gate *alert.Gate,
	products repository.ProductRepository,
	tx inventory.TxRunner,
	recipients *RecipientDirectory,
	queue Enqueuer,
	log *logger.Logger,
) *Service {
	return &Service{gate: gate, products: products, tx: tx, recipients: recipients, queue: queue, log: log}
}

// ClaimLowStock check-and-mark del gate con las claves de la transacción en curso.
// Un error del KeyStore se registra y cuenta como "no notificar".
func (s *Service) ClaimLowStock(ctx context.Context, keys alert.KeyStore, p *entity.Product) bool {
	ok, err := s.gate.ShouldNotifyLowStock(ctx, keys, p)
	if err != nil {
		s.log.Warn().Err(err).Int64("product_id", p.ID).Msg("gate de stock bajo no disponible")
		return false
	}
	return ok
}

// PublishLowStock agenda las alertas en segundo plano y retorna de inmediato.
func (s *Service) PublishLowStock(products []*entity.Product) {
	payloads := make([]any, 0, len(products))
	for _, p := range products {
		payloads = append(payloads, LowStockPayload{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Category:  p.Category,
			Stock:     p.StockQuantity,
			Threshold: p.MinStockThreshold,
			Price:     p.Price,
		})
	}
	s.publishAsync(KindLowStock, payloads)
}

func (s *Service) publishExpiry(products []*entity.Product) {
	payloads := make([]any, 0, len(products))
	for _, p := range products {
		pl := ExpiryPayload{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			BatchNo:   p.BatchNo,
			DaysLeft:  s.gate.DaysUntilExpiry(p),
			Stock:     p.StockQuantity,
		}
		if p.ExpiryDate != nil {
			pl.ExpiryDate = *p.ExpiryDate
		}
		payloads = append(payloads, pl)
	}
	s.publishAsync(KindExpiry, payloads)
}

func (s *Service) publishAsync(kind Kind, payloads []any) {
	if len(payloads) == 0 {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		s.publish(ctx, kind, payloads)
	}()
}

func (s *Service) publish(ctx context.Context, kind Kind, payloads []any) {
	to, err := s.recipients.Recipients(ctx, kind)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("no se pudieron resolver destinatarios")
		return
	}
	if len(to) == 0 {
		s.log.Info().Str("kind", string(kind)).Int("alerts", len(payloads)).Msg("sin managers con alertas habilitadas")
		return
	}
	queued := 0
	for _, pl := range payloads {
		for _, addr := range to {
			if s.queue.Enqueue(Delivery{Kind: kind, To: addr, Payload: pl}) {
				queued++
			}
		}
	}
	s.log.Info().Str("kind", string(kind)).Int("alerts", len(payloads)).Int("recipients", len(to)).Int("queued", queued).Msg("alertas agendadas")
}

// Wait espera a que terminen las publicaciones en curso (apagado y tests).
func (s *Service) Wait() {
	s.inflight.Wait()
}

type claimFunc func(ctx context.Context, keys alert.KeyStore, p *entity.Product) (bool, error)

// sweep evalúa claim producto por producto, cada uno en su transacción y sobre la
// fila bloqueada: una factura concurrente no puede quedar entre la lectura y la marca.
func (s *Service) sweep(ctx context.Context, candidates []*entity.Product, claim claimFunc) ([]*entity.Product, error) {
	var claimed []*entity.Product
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return claimed, err
		}
		var hit *entity.Product
		err := s.tx.Run(ctx, func(repo repository.ProductRepository, _ repository.InventoryMovementRepository, keys alert.KeyStore) error {
			hit = nil
			locked, err := repo.GetForUpdate(ctx, []int64{c.ID})
			if err != nil {
				return err
			}
			p := locked[c.ID]
			if p == nil {
				return nil
			}
			ok, err := claim(ctx, keys, p)
			if err != nil {
				return err
			}
			if ok {
				hit = p.Clone()
			}
			return nil
		})
		if err != nil {
			s.log.Warn().Err(err).Int64("product_id", c.ID).Msg("barrido: producto omitido")
			continue
		}
		if hit != nil {
			claimed = append(claimed, hit)
		}
	}
	return claimed, nil
}

// SweepLowStock evalúa el gate sobre todo el catálogo. Devuelve las alertas agendadas.
func (s *Service) SweepLowStock(ctx context.Context) (int, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("low stock sweep: %w", err)
	}
	claimed, err := s.sweep(ctx, products, s.gate.ShouldNotifyLowStock)
	s.PublishLowStock(claimed)
	if err != nil {
		return len(claimed), fmt.Errorf("low stock sweep: %w", err)
	}
	return len(claimed), nil
}

// SweepExpiry evalúa el gate de vencimiento sobre los productos con fecha.
func (s *Service) SweepExpiry(ctx context.Context) (int, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("expiry sweep: %w", err)
	}
	dated := products[:0]
	for _, p := range products {
		if p.ExpiryDate != nil {
			dated = append(dated, p)
		}
	}
	claimed, err := s.sweep(ctx, dated, s.gate.ShouldNotifyExpiry)
	s.publishExpiry(claimed)
	if err != nil {
		return len(claimed), fmt.Errorf("expiry sweep: %w", err)
	}
	return len(claimed), nil
}
