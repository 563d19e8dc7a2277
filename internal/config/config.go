// Package config provides configuration loading and structs for the buscador server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/buscador/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Accounts AccountsConfig `yaml:"accounts"`
	Session  SessionConfig  `yaml:"session"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Scraper  ScraperConfig  `yaml:"scraper"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int    `yaml:"write_timeout_sec"`
	RequestTimeoutSec  int    `yaml:"request_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
	AppVersion         string `yaml:"app_version"`
	Creator            string `yaml:"creator"`
}

// SearchConfig selects and configures the search backend.
type SearchConfig struct {
	Backend           string `yaml:"backend"` // elastic (default) or bleve
	URL               string `yaml:"url"`
	APIKey            string `yaml:"api_key"`
	BlevePath         string `yaml:"bleve_path"` // empty = in-memory
	DefaultIndex      string `yaml:"default_index"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

// AccountsConfig selects and configures the account store.
type AccountsConfig struct {
	Backend                   string         `yaml:"backend"` // mongo (default) or sqlite
	MongoURI                  string         `yaml:"mongo_uri"`
	Database                  string         `yaml:"database"`
	Collection                string         `yaml:"collection"`
	SQLitePath                string         `yaml:"sqlite_path"`
	ServerSelectionTimeoutSec int            `yaml:"server_selection_timeout_sec"`
	PasswordScheme            string         `yaml:"password_scheme"` // plaintext (default) or bcrypt
	BootstrapAdmin            BootstrapAdmin `yaml:"bootstrap_admin"`
}

// BootstrapAdmin is seeded as a full administrator when the account store is empty.
type BootstrapAdmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SessionConfig holds cookie and session store settings.
type SessionConfig struct {
	SecretKey     string   `yaml:"secret_key"`
	Store         string   `yaml:"store"` // memory (default) or redis
	RedisAddrs    []string `yaml:"redis_addrs"`
	RedisPassword string   `yaml:"redis_password"`
	TTLMinutes    int      `yaml:"ttl_minutes"`
	CookieName    string   `yaml:"cookie_name"`
	SecureCookie  bool     `yaml:"secure_cookie"`
}

// IngestConfig bounds a single upload request.
type IngestConfig struct {
	MaxFiles       int    `yaml:"max_files"`
	MaxEntryBytes  int64  `yaml:"max_entry_bytes"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	StagingDir     string `yaml:"staging_dir"` // empty = os.TempDir()
}

// ScraperConfig bounds a single scrape pass.
type ScraperConfig struct {
	Extensions         []string `yaml:"extensions"`
	MaxFiles           int      `yaml:"max_files"`
	MaxPages           int      `yaml:"max_pages"`
	PageTimeoutSec     int      `yaml:"page_timeout_sec"`
	DownloadTimeoutSec int      `yaml:"download_timeout_sec"`
	MaxDownloadBytes   int64    `yaml:"max_download_bytes"`
	RequestsPerSecond  float64  `yaml:"requests_per_second"` // 0 = unlimited
	UserAgent          string   `yaml:"user_agent"`
}

// LoadEnvFiles loads KEY=value pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses the config file at path, expands ${VAR} references,
// applies defaults and environment overrides. An empty path yields a config
// built from defaults and the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, os.LookupEnv)

	cfg.Accounts.SQLitePath = expandPath(cfg.Accounts.SQLitePath, configDir)
	cfg.Search.BlevePath = expandPath(cfg.Search.BlevePath, configDir)
	cfg.Ingest.StagingDir = expandPath(cfg.Ingest.StagingDir, configDir)

	return &cfg, nil
}

// Validate checks that the selected backends have their connection parameters.
func (c *Config) Validate() error {
	var errs []string
	switch c.Search.Backend {
	case "elastic":
		if c.Search.URL == "" || c.Search.APIKey == "" {
			errs = append(errs, "search: ELASTIC_CLOUD_URL and ELASTIC_API_KEY are required for the elastic backend")
		}
	case "bleve":
	default:
		errs = append(errs, fmt.Sprintf("search: unknown backend %q", c.Search.Backend))
	}
	switch c.Accounts.Backend {
	case "mongo":
		if c.Accounts.MongoURI == "" {
			errs = append(errs, "accounts: MONGO_URI is required for the mongo backend")
		}
	case "sqlite":
		if c.Accounts.SQLitePath == "" {
			errs = append(errs, "accounts: sqlite_path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("accounts: unknown backend %q", c.Accounts.Backend))
	}
	switch c.Accounts.PasswordScheme {
	case "plaintext", "bcrypt":
	default:
		errs = append(errs, fmt.Sprintf("accounts: unknown password scheme %q", c.Accounts.PasswordScheme))
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if len(c.Session.RedisAddrs) == 0 {
			errs = append(errs, "session: REDIS_ADDR is required for the redis store")
		}
	default:
		errs = append(errs, fmt.Sprintf("session: unknown store %q", c.Session.Store))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", models.ErrConfig, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateServer additionally requires the session signing secret.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Session.SecretKey == "" {
		return fmt.Errorf("%w: session: SECRET_KEY is required", models.ErrConfig)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars substitutes ${VAR} with the variable's value (empty when unset).
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// expandPath makes "./"-relative paths relative to configDir. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	return path
}
