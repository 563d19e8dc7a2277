package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/watcher"
)

var (
	watchIndex     string
	watchRecursive bool
	watchSettle    time.Duration
	watchSync      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Index JSON and ZIP files dropped into a directory",
	Long: `Watches a drop folder and runs every .json or .zip file that lands in it
through the same pipeline as the ingest command, one file per batch. Runs
until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchIndex, "index", "i", "", "target index (default: search.default_index)")
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "also watch subdirectories")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0, "quiet period before a file is read (default 400ms)")
	watchCmd.Flags().BoolVar(&watchSync, "sync", false, "index files already in the directory first")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger, want{search: true})
	if err != nil {
		return err
	}
	defer components.Close()

	handle := func(ctx context.Context, path string) {
		res, out, err := components.Pipeline.IngestAndIndex(ctx, watchIndex, []ingest.Upload{ingest.PathUpload(path)})
		if err != nil {
			logger.Warn("drop folder file rejected", zap.String("path", path), zap.Error(err))
			return
		}
		if !out.Success {
			logger.Error("drop folder bulk index failed", zap.String("path", path), zap.String("error", out.Error))
			return
		}
		logger.Info("drop folder file indexed",
			zap.String("path", path),
			zap.Int("documents", len(res.Documents)),
			zap.Int("warnings", len(res.Warnings)),
			zap.String("index", out.Index),
		)
	}

	w := watcher.New(args[0], []string{".json", ".zip"}, handle,
		watcher.WithRecursive(watchRecursive),
		watcher.WithSettle(watchSettle),
		watcher.WithLogger(logger.Named("watcher")),
	)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	if watchSync {
		w.Sync(ctx)
	}
	cmd.Printf("watching %s (ctrl-c to stop)\n", w.Root())
	<-ctx.Done()
	return nil
}
