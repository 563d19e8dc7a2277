package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/accounts"
	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/extract"
	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/scraper"
	"github.com/hyperjump/buscador/internal/search"
	"github.com/hyperjump/buscador/internal/session"
)

// Components holds the clients built from config. Nil fields were not requested.
type Components struct {
	Accounts *accounts.Service
	Search   *search.Client
	Pipeline *ingest.Pipeline
	Scraper  *scraper.Scraper
	Sessions *session.Manager
	store    session.Store
	logger   *zap.Logger
}

type want struct {
	accounts, search, sessions bool
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, w want) (*Components, error) {
	c := &Components{logger: logger}
	if w.search {
		client, err := search.Open(cfg.Search, logger.Named("search"))
		if err != nil {
			return nil, err
		}
		c.Search = client
		c.Pipeline = ingest.NewPipeline(cfg.Ingest, client, ingest.WithLogger(logger.Named("ingest")))
		c.Scraper = newScraper(cfg, logger)
	}
	if w.accounts {
		svc, err := accounts.Open(ctx, cfg.Accounts, logger.Named("accounts"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Accounts = svc
	}
	if w.sessions {
		m, store, err := session.Open(cfg.Session, logger.Named("session"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Sessions, c.store = m, store
	}
	return c, nil
}

// Close releases every opened client.
func (c *Components) Close() {
	if c.Search != nil {
		if err := c.Search.Close(); err != nil {
			c.logger.Warn("search close failed", zap.Error(err))
		}
	}
	if c.Accounts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Accounts.Close(ctx); err != nil {
			c.logger.Warn("accounts close failed", zap.Error(err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("session store close failed", zap.Error(err))
		}
	}
}

func newScraper(cfg *config.Config, logger *zap.Logger) *scraper.Scraper {
	return scraper.New(cfg.Scraper,
		scraper.WithStagingDir(cfg.Ingest.StagingDir),
		scraper.WithExtractor(func(maxPages int) scraper.Extractor {
			return extract.NewExtractor(extract.WithMaxPages(maxPages), extract.WithLogger(logger.Named("extract")))
		}),
		scraper.WithLogger(logger.Named("scraper")),
	)
}
