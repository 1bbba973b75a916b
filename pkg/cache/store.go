// Package cache - key/value хранилище с TTL.
//
// Единственный писатель - catalog.Provider (ключ "products").
// Запись по принципу last-writer-wins, без single-flight.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/shopchat/pkg/config"
)

// Store - контракт хранилища.
//
// Get возвращает (nil, false, nil) если ключа нет или TTL истёк.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New создаёт хранилище по конфигурации.
func New(cfg config.CacheConfig) (Store, error) {
	cfg = cfg.GetDefaults()

	switch cfg.Driver {
	case config.CacheMemory:
		return NewMemoryStore(), nil
	case config.CacheSQLite:
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}
