package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/buscador/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
search:
  backend: bleve
accounts:
  backend: sqlite
  sqlite_path: "./data/accounts.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	wantDB := filepath.Join(dir, "data", "accounts.db")
	if cfg.Accounts.SQLitePath != wantDB {
		t.Errorf("sqlite_path = %q, want %q", cfg.Accounts.SQLitePath, wantDB)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_emptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.DefaultIndex != models.DefaultIndex {
		t.Errorf("default index = %q", cfg.Search.DefaultIndex)
	}
	if cfg.Ingest.MaxFiles != 2 {
		t.Errorf("ingest max files = %d, want 2", cfg.Ingest.MaxFiles)
	}
	if cfg.Scraper.MaxFiles != 5 || cfg.Scraper.MaxPages != 5 {
		t.Errorf("scraper bounds = %d/%d, want 5/5", cfg.Scraper.MaxFiles, cfg.Scraper.MaxPages)
	}
}

func TestLoad_expandsEnvVars(t *testing.T) {
	t.Setenv("BUSCADOR_TEST_API_KEY", "secret-key")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
search:
  url: "https://es.example.com"
  api_key: "${BUSCADOR_TEST_API_KEY}"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.APIKey != "secret-key" {
		t.Errorf("api_key = %q", cfg.Search.APIKey)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ELASTIC_CLOUD_URL": "https://cloud.example.com:443",
		"ELASTIC_API_KEY":   "k",
		"MONGO_URI":         "mongodb://localhost:27017",
		"MONGO_DB":          "db",
		"MONGO_COLECCION":   "users",
		"SECRET_KEY":        "s3cr3t",
		"REDIS_ADDR":        "a:6379, b:6379",
		"BUSCADOR_PORT":     "8081",
		"BUSCADOR_DEBUG":    "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, lookup)

	if cfg.Search.URL != env["ELASTIC_CLOUD_URL"] || cfg.Search.APIKey != "k" {
		t.Errorf("search env not applied: %+v", cfg.Search)
	}
	if cfg.Accounts.MongoURI != env["MONGO_URI"] || cfg.Accounts.Database != "db" || cfg.Accounts.Collection != "users" {
		t.Errorf("accounts env not applied: %+v", cfg.Accounts)
	}
	if cfg.Session.SecretKey != "s3cr3t" {
		t.Errorf("secret = %q", cfg.Session.SecretKey)
	}
	if len(cfg.Session.RedisAddrs) != 2 || cfg.Session.RedisAddrs[1] != "b:6379" {
		t.Errorf("redis addrs = %v", cfg.Session.RedisAddrs)
	}
	if cfg.Server.Port != 8081 || !cfg.Debug {
		t.Errorf("port/debug not applied: %d %v", cfg.Server.Port, cfg.Debug)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		var cfg Config
		ApplyDefaults(&cfg)
		return &cfg
	}

	cfg := base()
	if err := cfg.Validate(); !errors.Is(err, models.ErrConfig) {
		t.Errorf("missing elastic/mongo params should be a config error, got %v", err)
	}

	cfg = base()
	cfg.Search.URL, cfg.Search.APIKey = "https://es", "k"
	cfg.Accounts.MongoURI = "mongodb://localhost"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := cfg.ValidateServer(); !errors.Is(err, models.ErrConfig) {
		t.Errorf("missing secret should be a config error, got %v", err)
	}
	cfg.Session.SecretKey = "x"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg = base()
	cfg.Search.Backend = "bleve"
	cfg.Accounts.Backend = "sqlite"
	cfg.Session.Store = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("redis store without addrs should fail")
	}
	cfg.Session.RedisAddrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BUSCADOR_TEST_FROM_DOTENV=hola\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUSCADOR_TEST_FROM_DOTENV", "")
	os.Unsetenv("BUSCADOR_TEST_FROM_DOTENV")
	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("BUSCADOR_TEST_FROM_DOTENV"); got != "hola" {
		t.Errorf("env from .env = %q", got)
	}
}
