package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Run the web application",
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	if cfg.Server.AppVersion == "" {
		cfg.Server.AppVersion = version
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, want{accounts: true, search: true, sessions: true})
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()

	if admin := cfg.Accounts.BootstrapAdmin; admin.Username != "" {
		created, err := components.Accounts.Bootstrap(ctx, admin.Username, admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info("bootstrap administrator created", zap.String("usuario", admin.Username))
		}
	}
	if components.Search.Ping(ctx) {
		logger.Info("search backend reachable", zap.String("backend", cfg.Search.Backend))
	} else {
		logger.Warn("search backend unreachable", zap.String("backend", cfg.Search.Backend))
	}

	srv := server.NewServer(server.Deps{
		Accounts: components.Accounts,
		Search:   components.Search,
		Pipeline: components.Pipeline,
		Scraper:  components.Scraper,
		Sessions: components.Sessions,
	}, cfg, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Shutting down...")
	timeout := time.Duration(cfg.Server.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
