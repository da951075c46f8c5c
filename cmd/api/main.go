package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/authguard/internal/auth"
	"github.com/BradenHooton/authguard/internal/background"
	"github.com/BradenHooton/authguard/internal/cache"
	"github.com/BradenHooton/authguard/internal/clock"
	"github.com/BradenHooton/authguard/internal/config"
	"github.com/BradenHooton/authguard/internal/database"
	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/handlers"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	"github.com/BradenHooton/authguard/internal/repositories"
	"github.com/BradenHooton/authguard/internal/routes"
	"github.com/BradenHooton/authguard/internal/services"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	pkglogger "github.com/BradenHooton/authguard/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.Bool("production", cfg.Server.IsProduction()),
		slog.String("rate_limit_store", cfg.RateLimit.Store),
		slog.Bool("database", cfg.Database.Enabled()),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	clk := clock.System{}
	healthChecks := map[string]handlers.Pinger{}

	// Rate limiter store
	var store ratelimit.Store
	switch cfg.RateLimit.Store {
	case config.StoreRedis:
		client, err := cache.Connect(startupCtx, cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()
		store = ratelimit.NewRedisStore(client)
	default:
		store = ratelimit.NewMemoryStore()
	}

	limiter := ratelimit.NewLimiter(store, ratelimit.Config{
		MaxAttempts: cfg.RateLimit.MaxAttempts,
		Window:      cfg.RateLimit.Window,
	}, clk, logger)
	healthChecks["ratelimit"] = limiter

	detector := detection.NewDetector(clk)

	// Attempt history
	var history attemptHistory
	if cfg.Database.Enabled() {
		db, err := database.NewConnection(startupCtx, &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(startupCtx); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		history = repositories.NewAttemptLogRepository(db)
		healthChecks["database"] = db
	} else {
		history = repositories.NewMemoryAttemptLog(repositories.DefaultMaxPerSubject)
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for payload failures
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Timing.BaseDelayMs,
		RandomDelayMs:  cfg.Timing.RandomDelayMs,
		DelayOnSuccess: cfg.Timing.DelayOnSuccess,
	})

	// Initialize services
	guardService := services.NewGuardService(limiter, detector, history, services.GuardConfig{
		DetectionWindow: cfg.Detection.Window,
	}, clk, logger, auditLogger)

	payloadService, err := services.NewPayloadService(cfg.Payload.Secret, timingDelay, auditLogger)
	if err != nil {
		logger.Error("failed to initialize payload service", slog.Any("error", err))
		os.Exit(1)
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}

	serviceKey, err := auth.NewServiceKey(cfg.Server.APIKey)
	if err != nil {
		logger.Error("invalid service key", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize handlers
	guardHandler := handlers.NewGuardHandler(guardService, ipConfig, logger)
	toolsHandler := handlers.NewToolsHandler(payloadService)
	healthHandler := handlers.NewHealthHandler(healthChecks, logger)

	router := routes.NewRouter(routes.Options{
		Env:          cfg.Server.Env,
		IPConfig:     ipConfig,
		APIRateLimit: cfg.Server.APIRateLimit,
		Timeout:      cfg.Server.WriteTimeout,
		Logger:       logger,
		ServiceKey:   serviceKey,
	}, guardHandler, toolsHandler, healthHandler)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(limiter, history, background.CleanupConfig{
		Interval:  cfg.RateLimit.SweepInterval,
		Retention: cfg.Detection.HistoryRetention,
	}, clk, logger)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
	}

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

// attemptHistory is satisfied by both the memory log and the postgres repository
type attemptHistory interface {
	services.AttemptLog
	background.HistoryPruner
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		fmt.Fprintf(os.Stderr, "unknown LOG_LEVEL %q, using info\n", level)
		return slog.LevelInfo
	}
	return l
}
