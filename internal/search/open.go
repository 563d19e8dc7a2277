package search

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/models"
)

// Open builds a Client for cfg.Backend ("elastic" or "bleve").
func Open(cfg config.SearchConfig, logger *zap.Logger) (*Client, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "", "elastic":
		backend, err = NewElasticBackend(ElasticConfig{URL: cfg.URL, APIKey: cfg.APIKey})
	case "bleve":
		backend, err = NewBleveBackend(cfg.BlevePath)
	default:
		err = fmt.Errorf("%w: unknown search backend %q", models.ErrConfig, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewClient(backend,
		WithDefaultIndex(cfg.DefaultIndex),
		WithRequestTimeout(time.Duration(cfg.RequestTimeoutSec)*time.Second),
		WithLogger(logger),
	), nil
}
