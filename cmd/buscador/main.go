// Package main is the buscador CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/cli"
	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/buscador/config.yaml"

var (
	configPath string
	envFile    string
	debugFlag  bool
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:           "buscador",
	Short:         "Document ingestion and search web application",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the .env file and the config. When path is the default and
// missing, config.yaml in the current directory is tried, then defaults plus
// the environment. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadEnvFiles(envFile); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if _, err := os.Stat(path); err != nil {
			path = ""
			if cwd, cwdErr := os.Getwd(); cwdErr == nil {
				fallback := filepath.Join(cwd, "config.yaml")
				if _, statErr := os.Stat(fallback); statErr == nil {
					path = fallback
				}
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if debugFlag {
		cfg.Debug = true
	}
	return cfg, path, nil
}

// setup loads config and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
	return cfg, logger, nil
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseFormat(outputFlag)
}
