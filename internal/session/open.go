package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/config"
)

// Open builds the configured store and a manager over it.
func Open(cfg config.SessionConfig, logger *zap.Logger) (*Manager, Store, error) {
	var store Store
	switch cfg.Store {
	case "", "memory":
		store = NewMemoryStore()
	case "redis":
		rs, err := NewRedisStore(RedisConfig{Addrs: cfg.RedisAddrs, Password: cfg.RedisPassword})
		if err != nil {
			return nil, nil, err
		}
		store = rs
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
	m, err := NewManager(store, cfg.SecretKey,
		WithTTL(time.Duration(cfg.TTLMinutes)*time.Minute),
		WithCookieName(cfg.CookieName),
		WithSecureCookie(cfg.SecureCookie),
		WithLogger(logger),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Info("session store ready", zap.String("store", cfg.Store))
	return m, store, nil
}
