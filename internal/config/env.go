package config

import (
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with the process environment. The unprefixed names
// are the ones the deployment has always used; BUSCADOR_* names cover the rest.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ELASTIC_CLOUD_URL", &cfg.Search.URL)
	str("ELASTIC_URL", &cfg.Search.URL)
	str("ELASTIC_API_KEY", &cfg.Search.APIKey)
	str("MONGO_URI", &cfg.Accounts.MongoURI)
	str("MONGO_DB", &cfg.Accounts.Database)
	str("MONGO_COLECCION", &cfg.Accounts.Collection)
	str("SECRET_KEY", &cfg.Session.SecretKey)
	str("REDIS_PASSWORD", &cfg.Session.RedisPassword)
	str("BUSCADOR_SEARCH_BACKEND", &cfg.Search.Backend)
	str("BUSCADOR_BLEVE_PATH", &cfg.Search.BlevePath)
	str("BUSCADOR_ACCOUNTS_BACKEND", &cfg.Accounts.Backend)
	str("BUSCADOR_SQLITE_PATH", &cfg.Accounts.SQLitePath)
	str("BUSCADOR_PASSWORD_SCHEME", &cfg.Accounts.PasswordScheme)
	str("BUSCADOR_SESSION_STORE", &cfg.Session.Store)
	str("BUSCADOR_HOST", &cfg.Server.Host)
	str("BUSCADOR_LOG_LEVEL", &cfg.LogLevel)
	str("BUSCADOR_ADMIN_USER", &cfg.Accounts.BootstrapAdmin.Username)
	str("BUSCADOR_ADMIN_PASSWORD", &cfg.Accounts.BootstrapAdmin.Password)

	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		var addrs []string
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}
		cfg.Session.RedisAddrs = addrs
	}
	if v, ok := lookup("BUSCADOR_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if v, ok := lookup("BUSCADOR_DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}
