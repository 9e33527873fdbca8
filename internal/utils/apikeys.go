package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var apiKeys struct {
	sync.RWMutex
	cache map[string]struct{}
}

// ErrInvalidAPIKey signals that the provided API key is not known.
var ErrInvalidAPIKey = errors.New("invalid api key")

func postgresDSN(cfg PostgresConfig) (string, error) {
	if strings.HasPrefix(cfg.Host, "postgres://") || strings.HasPrefix(cfg.Host, "postgresql://") {
		return cfg.Host, nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres host is empty")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("postgres database is empty")
	}
	if cfg.User == "" {
		return "", fmt.Errorf("postgres user is empty")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	hostPort := cfg.Host
	if !strings.Contains(hostPort, ":") {
		hostPort = fmt.Sprintf("%s:%d", hostPort, port)
	}

	u := &url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + cfg.Database}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// LoadAPIKeysFromPostgres reads all API keys into the in-memory cache. The
// table is created on first use.
func LoadAPIKeysFromPostgres(cfg PostgresConfig) error {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS api_keys (
		key TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		comment TEXT
	);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `SELECT key FROM api_keys;`)
	if err != nil {
		return err
	}
	defer rows.Close()

	cache := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return err
		}
		cache[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	apiKeys.Lock()
	apiKeys.cache = cache
	apiKeys.Unlock()
	return nil
}

// LoadAPIKeysFromSlice replaces the key cache, for tests and local debugging.
func LoadAPIKeysFromSlice(keys []string) {
	cache := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		cache[k] = struct{}{}
	}
	apiKeys.Lock()
	apiKeys.cache = cache
	apiKeys.Unlock()
}

// APIKeysLoaded reports whether a key set has been installed at least once.
func APIKeysLoaded() bool {
	apiKeys.RLock()
	defer apiKeys.RUnlock()
	return apiKeys.cache != nil
}

// ValidateAPIKey checks the given key against the cached set.
func ValidateAPIKey(key string) bool {
	apiKeys.RLock()
	defer apiKeys.RUnlock()
	_, ok := apiKeys.cache[key]
	return ok
}

// RefreshAPIKeysPeriodically reloads keys from Postgres at the given interval
// until stop is closed.
func RefreshAPIKeysPeriodically(cfg PostgresConfig, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := LoadAPIKeysFromPostgres(cfg); err != nil {
				Error("Failed to reload API keys", "error", err)
			}
		case <-stop:
			return
		}
	}
}
