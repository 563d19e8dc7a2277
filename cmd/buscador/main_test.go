package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/models"
)

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "search:\n  backend: bleve\n  default_index: pruebas\n  bleve_path: ./data/index\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	envFile = filepath.Join(dir, "missing.env")
	t.Setenv("BUSCADOR_SEARCH_BACKEND", "")

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Search.DefaultIndex != "pruebas" || cfg.Search.Backend != "bleve" {
		t.Errorf("search config = %+v", cfg.Search)
	}
	if want := filepath.Join(dir, "data", "index"); cfg.Search.BlevePath != want {
		t.Errorf("BlevePath = %q, want %q", cfg.Search.BlevePath, want)
	}
}

func TestLoadConfig_missingFile(t *testing.T) {
	envFile = filepath.Join(t.TempDir(), "missing.env")
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestPermissionInput(t *testing.T) {
	got := models.NormalizePermissions(permissionInput([]string{"admin_elastic", " "}))
	if !got[models.PermAdminElastic] {
		t.Error("admin_elastic should be granted")
	}
	if got[models.PermLogin] {
		t.Error("login should be revoked when not listed")
	}
	if got[models.PermAdminUsers] {
		t.Error("admin_usuarios should stay revoked")
	}
}

func TestLocalDataBytes(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index")
	if err := os.MkdirAll(filepath.Join(index, "store"), 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(p string, n int) {
		if err := os.WriteFile(p, make([]byte, n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(index, "index_meta.json"), 10)
	write(filepath.Join(index, "store", "root.bolt"), 5)
	db := filepath.Join(dir, "cuentas.db")
	write(db, 7)

	cfg := &config.Config{
		Search:   config.SearchConfig{Backend: "bleve", BlevePath: index},
		Accounts: config.AccountsConfig{Backend: "sqlite", SQLitePath: db},
	}
	n, err := localDataBytes(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 22 {
		t.Errorf("localDataBytes = %d, want 22", n)
	}

	cfg.Search.Backend = "elastic"
	cfg.Accounts.Backend = "mongo"
	if n, _ := localDataBytes(cfg); n != 0 {
		t.Errorf("remote backends = %d, want 0", n)
	}
}
