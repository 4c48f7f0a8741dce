package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/synckeeper/internal/models"
	"github.com/iudanet/synckeeper/internal/server/handlers"
	"github.com/iudanet/synckeeper/internal/server/middleware"
	"github.com/iudanet/synckeeper/internal/server/reconcile"
	"github.com/iudanet/synckeeper/internal/server/storage/sqlite"
	"github.com/iudanet/synckeeper/internal/store"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run собирает и запускает сервер авторитетного хранилища
func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry, err := models.NewRegistry(models.DefaultRegistrations()...)
	if err != nil {
		return err
	}

	dataStorage, err := sqlite.New(ctx, cfg.DBPath, registry)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := dataStorage.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// Загружаем авторитетный набор из снимка
	authoritative := store.New(registry, nil)
	if err := dataStorage.Load(ctx, authoritative); err != nil {
		return fmt.Errorf("failed to load authoritative set: %w", err)
	}

	reconciler := reconcile.New(authoritative, dataStorage, logger)

	queryHandler := handlers.NewQueryHandler(logger, reconciler)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", queryHandler.HandleQuery)
	mux.HandleFunc("/api/v1/hash", queryHandler.HandleHash)
	mux.HandleFunc("/api/v1/health", healthHandler.Health)

	handler := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingMiddleware(logger)(
			middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow, logger)(mux)))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", cfg.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// parseLogLevel преобразует строку конфигурации в уровень slog
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printVersion() {
	fmt.Printf("SyncKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
