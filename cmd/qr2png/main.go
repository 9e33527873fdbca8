package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"qr2png/internal/app"
	"qr2png/internal/cache"
	u "qr2png/internal/utils"
)

func main() {
	cfg := u.LoadConfig()
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	store := buildCacheStore(cfg)

	idleConnsClosed := make(chan struct{})
	if cfg.Auth.Postgres.Host != "" {
		if err := u.LoadAPIKeysFromPostgres(cfg.Auth.Postgres); err != nil {
			u.Error("Failed to load API keys", "error", err)
		}
		go u.RefreshAPIKeysPeriodically(cfg.Auth.Postgres, time.Minute, idleConnsClosed)
	}

	app := app.SetupApp(cfg, store)

	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// buildCacheStore selects the fingerprint cache backend. The in-memory store
// is the default; Redis serves multi-replica deployments.
func buildCacheStore(cfg u.Config) cache.Store {
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisHost != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RedisDB,
		})
		u.Info("Using Redis fingerprint cache", "addr", cfg.Cache.RedisHost, "db", cfg.Cache.RedisDB)
		return cache.NewRedis(client, cfg.Cache.TTL, cfg.Cache.IdleTTL)
	}
	return cache.NewMemory(cfg.Cache.TTL, cfg.Cache.IdleTTL, cfg.Cache.MaxEntries)
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg u.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			u.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	u.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	u.Info("Server stopped cleanly")
}
