package config

import (
	"github.com/hyperjump/buscador/internal/models"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		cfg.Server.ReadTimeoutSec = 30
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		cfg.Server.WriteTimeoutSec = 180
	}
	if cfg.Server.RequestTimeoutSec <= 0 {
		cfg.Server.RequestTimeoutSec = 170
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		cfg.Server.ShutdownTimeoutSec = 10
	}
	if cfg.Server.AppVersion == "" {
		cfg.Server.AppVersion = "1.0.0"
	}
	if cfg.Server.Creator == "" {
		cfg.Server.Creator = "MabelAyala"
	}
	if cfg.Search.Backend == "" {
		cfg.Search.Backend = "elastic"
	}
	if cfg.Search.DefaultIndex == "" {
		cfg.Search.DefaultIndex = models.DefaultIndex
	}
	if cfg.Search.RequestTimeoutSec <= 0 {
		cfg.Search.RequestTimeoutSec = 30
	}
	if cfg.Accounts.Backend == "" {
		cfg.Accounts.Backend = "mongo"
	}
	if cfg.Accounts.Database == "" {
		cfg.Accounts.Database = "proyecto_bigData"
	}
	if cfg.Accounts.Collection == "" {
		cfg.Accounts.Collection = "usuario_roles"
	}
	if cfg.Accounts.SQLitePath == "" {
		cfg.Accounts.SQLitePath = "./data/accounts.db"
	}
	if cfg.Accounts.ServerSelectionTimeoutSec <= 0 {
		cfg.Accounts.ServerSelectionTimeoutSec = 5
	}
	if cfg.Accounts.PasswordScheme == "" {
		cfg.Accounts.PasswordScheme = "plaintext"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "memory"
	}
	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 8 * 60
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "buscador_session"
	}
	if cfg.Ingest.MaxFiles <= 0 {
		cfg.Ingest.MaxFiles = 2
	}
	if cfg.Ingest.MaxEntryBytes <= 0 {
		cfg.Ingest.MaxEntryBytes = 32 << 20
	}
	if cfg.Ingest.MaxUploadBytes <= 0 {
		cfg.Ingest.MaxUploadBytes = 100 << 20
	}
	if cfg.Scraper.Extensions == nil {
		cfg.Scraper.Extensions = []string{"pdf"}
	}
	if cfg.Scraper.MaxFiles <= 0 {
		cfg.Scraper.MaxFiles = 5
	}
	if cfg.Scraper.MaxPages <= 0 {
		cfg.Scraper.MaxPages = 5
	}
	if cfg.Scraper.PageTimeoutSec <= 0 {
		cfg.Scraper.PageTimeoutSec = 20
	}
	if cfg.Scraper.DownloadTimeoutSec <= 0 {
		cfg.Scraper.DownloadTimeoutSec = 40
	}
	if cfg.Scraper.MaxDownloadBytes <= 0 {
		cfg.Scraper.MaxDownloadBytes = 50 << 20
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "buscador-scraper/1.0"
	}
}
