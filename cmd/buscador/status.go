package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("buscador version %s\n", version)
	},
}

var pingCmd = &cobra.Command{
	Use:     "ping",
	Aliases: []string{"status"},
	Short:   "Check the search backend and account store",
	Args:    cobra.NoArgs,
	RunE:    runPing,
}

func init() {
	rootCmd.AddCommand(versionCmd, pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	failed := false

	components, err := initializeComponents(ctx, cfg, logger, want{search: true})
	switch {
	case err != nil:
		cmd.Printf("search (%s): %v\n", cfg.Search.Backend, err)
		failed = true
	case components.Search.Ping(ctx):
		cmd.Printf("search (%s): ok\n", cfg.Search.Backend)
		out := components.Search.ListIndices(ctx, "")
		if out.Success {
			cmd.Printf("  %s\n", out.Message)
		}
	default:
		cmd.Printf("search (%s): unreachable\n", cfg.Search.Backend)
		failed = true
	}
	if components != nil {
		components.Close()
	}

	components, err = initializeComponents(ctx, cfg, logger, want{accounts: true})
	if err == nil {
		err = components.Accounts.Ping(ctx)
		if err == nil {
			accs, listErr := components.Accounts.ListAccounts(ctx)
			if listErr == nil {
				cmd.Printf("accounts (%s): ok, %d accounts\n", cfg.Accounts.Backend, len(accs))
			}
		}
		components.Close()
	}
	if err != nil {
		cmd.Printf("accounts (%s): %v\n", cfg.Accounts.Backend, err)
		failed = true
	}

	if n, err := localDataBytes(cfg); err != nil {
		logger.Warn("local data size unavailable", zap.Error(err))
	} else if n > 0 {
		cmd.Printf("local data: %d bytes\n", n)
	}

	if failed {
		return fmt.Errorf("one or more backends are unavailable")
	}
	return nil
}

// localDataBytes sums the on-disk size of the embedded backends: the bleve
// index directory and the SQLite account database with its WAL files.
func localDataBytes(cfg *config.Config) (int64, error) {
	var paths []string
	if cfg.Search.Backend == "bleve" {
		paths = append(paths, cfg.Search.BlevePath)
	}
	if cfg.Accounts.Backend == "sqlite" && cfg.Accounts.SQLitePath != "" {
		db := cfg.Accounts.SQLitePath
		paths = append(paths, db, db+"-wal", db+"-shm")
	}
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}
