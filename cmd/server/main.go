// ============================================================================
// MAIN.GO - SHORTLINK SERVER ENTRY POINT
// ============================================================================
// Startup flow:
//   config → logger → link store (PostgreSQL or in-memory) → optional Redis
//   (cache + rate limiter) → service → HTTP handler/router → server
//
// Shutdown flow:
//   signal → stop accepting requests → drain in-flight click writes →
//   close Redis and the database pool
// ============================================================================

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shortlink/internal/config"
	httpHandler "shortlink/internal/handler/http"
	"shortlink/internal/migrations"
	"shortlink/internal/ratelimit"
	"shortlink/internal/repository"
	"shortlink/internal/repository/memory"
	"shortlink/internal/repository/postgres"
	rediscache "shortlink/internal/repository/redis"
	"shortlink/internal/service"
	"shortlink/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// ========================================================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================================================
	// Defaults, then CONFIG_FILE (YAML), then environment variables.
	// ========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// ========================================================================
	// STEP 2: INITIALIZE STRUCTURED LOGGER
	// ========================================================================
	appLogger := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	appLogger.Info("Starting shortlink",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
	)

	ctx := context.Background()

	// ========================================================================
	// STEP 3: LINK STORE
	// ========================================================================
	repo, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Link store initialization failed: %v", err)
	}
	defer closeStore()

	// ========================================================================
	// STEP 4: OPTIONAL REDIS (CACHE + RATE LIMITER)
	// ========================================================================
	// Interfaces stay nil unless Redis is up, so the service and router see
	// a real nil rather than a typed nil pointer.
	// ========================================================================
	var (
		cache       service.Cache
		rateLimiter httpHandler.RateLimiter
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = rediscache.InitRedis(ctx, cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", "error", err)
		} else {
			cache = rediscache.NewCache(redisClient, cfg.Redis.CacheTTL)
			appLogger.Info("Redis cache enabled", "addr", cfg.Redis.RedisAddr(), "ttl", cfg.Redis.CacheTTL)

			if cfg.App.RateLimitEnabled {
				rateLimiter = ratelimit.NewFixedWindowLimiter(redisClient, cfg.App.RateLimitPerMinute, time.Minute)
				appLogger.Info("Rate limiting enabled", "requests_per_minute", cfg.App.RateLimitPerMinute)
			}
		}
	} else if cfg.App.RateLimitEnabled {
		appLogger.Warn("Rate limiting requires Redis; disabled")
	}

	// ========================================================================
	// STEP 5: WIRE SERVICE AND HTTP LAYER
	// ========================================================================
	linkService := service.NewLinkService(repo, cache, appLogger.Logger,
		service.WithHashLength(cfg.App.HashLength),
		service.WithClickWriteTimeout(cfg.Click.WriteTimeout),
	)

	handler := httpHandler.NewHandler(linkService, appLogger, cfg.Server.BaseURL)
	router := httpHandler.NewRouter(handler, httpHandler.RouterOptions{
		Logger:        appLogger,
		RateLimiter:   rateLimiter,
		EnableMetrics: cfg.App.EnableMetrics,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// ========================================================================
	// STEP 6: START SERVER
	// ========================================================================
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server starting", "address", server.Addr, "base_url", cfg.Server.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ========================================================================
	// STEP 7: GRACEFUL SHUTDOWN
	// ========================================================================
	// Click writes run detached from requests, so they are drained after
	// the server stops and before the store closes.
	// ========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", "signal", sig.String())
	case err := <-serverErr:
		appLogger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	linkService.Wait()
	appLogger.Info("Pending click writes drained")

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLogger.Warn("Failed to close Redis client", "error", err)
		}
	}

	appLogger.Info("Server exited gracefully")
}

// openStore builds the configured link store and returns its close func
func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (repository.LinkRepository, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		appLogger.Warn("Using in-memory link store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	dsn := cfg.Database.DatabaseURL()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(dsn, appLogger); err != nil {
			return nil, nil, err
		}
	}

	db, err := postgres.InitDB(ctx, dsn, cfg.Database.MaxConns, cfg.Database.MinConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, nil, err
	}
	appLogger.Info("Database connection established",
		"host", cfg.Database.Host,
		"database", cfg.Database.DBName,
	)

	return postgres.NewLinkRepository(db, cfg.Database.QueryTimeout), db.Close, nil
}

func runMigrations(dsn string, appLogger *logger.Logger) error {
	migrator, err := migrations.New(dsn, appLogger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			appLogger.Warn("Failed to close migrator", "error", err)
		}
	}()

	return migrator.Up()
}
