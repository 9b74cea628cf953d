package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// DefaultSendTimeout tiempo máximo por envío individual.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher cola acotada + pool de workers. Enqueue nunca bloquea: con la cola llena
// la entrega se descarta y se registra. Cada entrega es independiente, así que el
// fallo de un destinatario no afecta a los demás.
type Dispatcher struct {
	mailer      Mailer
	log         *logger.Logger
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan Delivery
	wg     sync.WaitGroup

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// DispatcherStats contadores acumulados.
type DispatcherStats struct {
	Sent    int64
	Failed  int64
	Dropped int64
}

// NewDispatcher arranca workers goroutines que consumen una cola de queueSize.
func NewDispatcher(mailer Mailer, workers, queueSize int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		mailer:      mailer,
		log:         log,
		sendTimeout: DefaultSendTimeout,
		jobs:        make(chan Delivery, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Enqueue agenda una entrega. Devuelve false si se descartó (cola llena o detenido).
func (d *Dispatcher) Enqueue(del Delivery) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		d.log.Warn().Str("kind", string(del.Kind)).Str("to", del.To).Msg("despachador detenido, correo descartado")
		return false
	}
	select {
	case d.jobs <- del:
		return true
	default:
		d.dropped.Add(1)
		d.log.Warn().Str("kind", string(del.Kind)).Str("to", del.To).Msg("cola de correo llena, correo descartado")
		return false
	}
}

// Stop deja de aceptar entregas y espera a que los workers vacíen la cola o venza ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats devuelve los contadores actuales.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{Sent: d.sent.Load(), Failed: d.failed.Load(), Dropped: d.dropped.Load()}
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for del := range d.jobs {
		d.deliver(n, del)
	}
}

func (d *Dispatcher) deliver(n int, del Delivery) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.log.Error().Interface("panic", r).Str("to", del.To).Msg("panic enviando correo")
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, del); err != nil {
		d.failed.Add(1)
		d.log.Error().Err(err).
			Int("worker", n).
			Str("kind", string(del.Kind)).
			Str("to", del.To).
			Msg("envío de correo fallido")
		return
	}
	d.sent.Add(1)
	d.log.Debug().Int("worker", n).Str("kind", string(del.Kind)).Str("to", del.To).Msg("correo enviado")
}
