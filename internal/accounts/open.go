package accounts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/models"
)

// Open builds the Service for cfg.Backend ("mongo" or "sqlite").
func Open(ctx context.Context, cfg config.AccountsConfig, logger *zap.Logger) (*Service, error) {
	scheme, err := NewScheme(cfg.PasswordScheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfig, err)
	}
	var repo Repository
	switch cfg.Backend {
	case "", "mongo":
		m, err := NewMongoRepository(ctx, MongoConfig{
			URI:                    cfg.MongoURI,
			Database:               cfg.Database,
			Collection:             cfg.Collection,
			ServerSelectionTimeout: time.Duration(cfg.ServerSelectionTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			// Existing collections with duplicate usernames cannot take the index;
			// the service still checks existence before writes.
			logger.Warn("usuario index not created", zap.Error(err))
		}
		repo = m
	case "sqlite":
		s, err := NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo = s
	default:
		return nil, fmt.Errorf("%w: unknown accounts backend %q", models.ErrConfig, cfg.Backend)
	}
	return NewService(repo, WithScheme(scheme), WithLogger(logger)), nil
}
