// Package redis guarda las claves del gate de alertas en Redis para compartirlas entre réplicas.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/pkg/config"
)

var _ alert.KeyStore = (*KeyStore)(nil)

const keyPrefix = "retail:alerts:"

// KeyStore implementación de alert.KeyStore con SETNX.
type KeyStore struct {
	rdb *goredis.Client
}

// NewClient abre el cliente desde REDIS_URL y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewKeyStore construye el store sobre un cliente existente.
func NewKeyStore(rdb *goredis.Client) *KeyStore {
	return &KeyStore{rdb: rdb}
}

// Add SETNX sin expiración: la clave vive hasta que el gate la libera.
func (s *KeyStore) Add(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+key, 1, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *KeyStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *KeyStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
