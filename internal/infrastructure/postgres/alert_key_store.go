package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
)

var _ alert.KeyStore = (*AlertKeyStore)(nil)

// AlertKeyStore claves de notificación en la tabla notification_keys; sobreviven reinicios.
type AlertKeyStore struct {
	q Querier
}

// NewAlertKeyStore construye el store.
func NewAlertKeyStore(q Querier) *AlertKeyStore {
	return &AlertKeyStore{q: q}
}

// Add inserta la clave; false si ya existía.
func (s *AlertKeyStore) Add(ctx context.Context, key string) (bool, error) {
	cmd, err := s.q.Exec(ctx,
		`INSERT INTO notification_keys (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, key)
	if err != nil {
		return false, fmt.Errorf("add notification key: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (s *AlertKeyStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_keys WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check notification key: %w", err)
	}
	return exists, nil
}

func (s *AlertKeyStore) Remove(ctx context.Context, key string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM notification_keys WHERE key = $1`, key); err != nil {
		return fmt.Errorf("remove notification key: %w", err)
	}
	return nil
}
