package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daily-ledger/internal/cache"
	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/database"
	"github.com/daily-ledger/internal/events"
	"github.com/daily-ledger/internal/handler"
	"github.com/daily-ledger/internal/repository"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level}); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := database.Open(cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto migrate database
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis backs the identity cache and the audit bus when enabled;
	// otherwise both fall back to in-process implementations
	var (
		rdb        *redis.Client
		identities cache.IdentityCache = cache.NopIdentityCache{}
		bus        events.AuditBus     = events.NewMemoryAuditBus()
	)
	if cfg.Redis.Enabled {
		rdb = initRedis(cfg)
		identities = cache.NewRedisIdentityCache(rdb, cfg.Redis.IdentityTTL())
		bus = events.NewRedisAuditBus(rdb)
	}

	// Initialize services
	store := repository.NewStore(db)
	auditService := service.NewAuditService(store, bus, cfg.Audit)
	userService := service.NewUserService(store, auditService, identities)
	ledgerService := service.NewLedgerService(store, auditService)
	authService := service.NewAuthService(userService, store, auditService, identities, cfg.JWT)

	router := handler.NewRouter(handler.Services{
		Auth:   authService,
		Users:  userService,
		Ledger: ledgerService,
		Audit:  auditService,
		Bus:    bus,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, handler.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting server %s on %s", Version, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Errorf("Error closing Redis connection: %v", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Server exited properly")
}

func initRedis(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("Redis at %s is not reachable yet: %v", cfg.Redis.Addr(), err)
	}
	return rdb
}
