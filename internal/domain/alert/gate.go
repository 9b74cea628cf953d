// Package alert decide cuándo una condición de inventario merece una notificación.
//
// El gate garantiza a lo sumo una alerta por "tramo" de la condición: la clave se
// marca al notificar y solo se borra cuando la condición se resuelve (stock por encima
// del umbral). Las alertas de vencimiento nunca se rearman.
package alert

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
)

// DefaultExpiryWindowDays ventana de días previos al vencimiento en la que se alerta.
const DefaultExpiryWindowDays = 10

// KeyStore conjunto de claves ya notificadas. Add debe ser atómico (check-and-mark).
// Los casos de uso reciben el KeyStore de su transacción (ver Journal).
type KeyStore interface {
	// Add marca la clave y devuelve true solo si no estaba presente.
	Add(ctx context.Context, key string) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
}

// LowStockKey identifica el tramo de stock bajo de un producto para un umbral dado.
// Cambiar el umbral produce una clave distinta.
func LowStockKey(p *entity.Product) string {
	return fmt.Sprintf("low_stock:%d:%d", p.ID, p.MinStockThreshold)
}

// ExpiryKey identifica un lote con su fecha de vencimiento.
func ExpiryKey(p *entity.Product) string {
	expiry := ""
	if p.ExpiryDate != nil {
		expiry = p.ExpiryDate.Format("2006-01-02")
	}
	return fmt.Sprintf("expiry:%d:%s:%s", p.ID, p.BatchNo, expiry)
}

// DaysUntil días (redondeo hacia arriba) entre now y t.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// Gate aplica las reglas de notificación. No guarda estado: las marcas viven en el
// KeyStore que recibe cada llamada, atado a la transacción que bloquea el producto.
type Gate struct {
	windowDays int
	now        func() time.Time
}

// NewGate construye el gate. windowDays <= 0 usa DefaultExpiryWindowDays.
func NewGate(windowDays int) *Gate {
	if windowDays <= 0 {
		windowDays = DefaultExpiryWindowDays
	}
	return &Gate{windowDays: windowDays, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// ShouldNotifyLowStock devuelve true la primera vez que el producto entra en stock bajo
// para su umbral actual. Si el stock supera el umbral, rearma la clave y devuelve false.
func (g *Gate) ShouldNotifyLowStock(ctx context.Context, keys KeyStore, p *entity.Product) (bool, error) {
	key := LowStockKey(p)
	if !p.IsLowStock() {
		if err := keys.Remove(ctx, key); err != nil {
			return false, fmt.Errorf("alert: clear %s: %w", key, err)
		}
		return false, nil
	}
	added, err := keys.Add(ctx, key)
	if err != nil {
		return false, fmt.Errorf("alert: mark %s: %w", key, err)
	}
	return added, nil
}

// ShouldNotifyExpiry devuelve true una sola vez por lote cuando faltan entre 0 y
// windowDays días para el vencimiento. Nunca rearma.
func (g *Gate) ShouldNotifyExpiry(ctx context.Context, keys KeyStore, p *entity.Product) (bool, error) {
	if p.ExpiryDate == nil {
		return false, nil
	}
	days := DaysUntil(*p.ExpiryDate, g.now())
	if days < 0 || days > g.windowDays {
		return false, nil
	}
	key := ExpiryKey(p)
	added, err := keys.Add(ctx, key)
	if err != nil {
		return false, fmt.Errorf("alert: mark %s: %w", key, err)
	}
	return added, nil
}

// DaysUntilExpiry días restantes según el reloj del gate (0 si no tiene fecha).
func (g *Gate) DaysUntilExpiry(p *entity.Product) int {
	if p.ExpiryDate == nil {
		return 0
	}
	return DaysUntil(*p.ExpiryDate, g.now())
}

// MemoryKeyStore KeyStore en proceso. Se pierde al reiniciar: tras un reinicio una
// condición que sigue vigente puede volver a notificarse una vez.
type MemoryKeyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryKeyStore construye el store vacío.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]struct{})}
}

// Add marca la clave de forma atómica.
func (s *MemoryKeyStore) Add(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *MemoryKeyStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *MemoryKeyStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Len cantidad de claves marcadas.
func (s *MemoryKeyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
