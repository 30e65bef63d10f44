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
	"time"

	"github.com/taskwire/taskwire/internal/server/handlers"
	"github.com/taskwire/taskwire/internal/server/hub"
	"github.com/taskwire/taskwire/internal/server/middleware"
	"github.com/taskwire/taskwire/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8080", "Listen address")
	dbPath := flag.String("db", "taskwire-server.db", "Path to SQLite database")
	jwtSecret := flag.String("jwt-secret", "", "HMAC secret for access tokens (required)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if *jwtSecret == "" {
		logger.Error("missing required flag -jwt-secret")
		os.Exit(1)
	}

	if err := run(*addr, *dbPath, *jwtSecret, *tokenTTL, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(addr, dbPath, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилище: SQLite с embedded миграциями
	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	jwtConfig := handlers.JWTConfig{
		Secret:         []byte(jwtSecret),
		AccessTokenTTL: tokenTTL,
	}

	wsHub := hub.New(logger)

	authHandler := handlers.NewAuthHandler(logger, store, jwtConfig)
	todosHandler := handlers.NewTodosHandler(logger, store, wsHub)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	// Rate limit только на auth endpoints: защита от brute force
	rateLimiter := middleware.NewRateLimiter(10, time.Minute, logger)
	defer rateLimiter.Stop()

	limited := middleware.RateLimitMiddleware(rateLimiter)
	authed := middleware.AuthMiddleware(logger, jwtConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("POST /api/v1/auth/register", limited(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", limited(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/v1/todos", authed(http.HandlerFunc(todosHandler.List)))
	mux.Handle("POST /api/v1/todos", authed(http.HandlerFunc(todosHandler.Create)))
	mux.Handle("PUT /api/v1/todos/{id}", authed(http.HandlerFunc(todosHandler.Update)))
	mux.Handle("DELETE /api/v1/todos/{id}", authed(http.HandlerFunc(todosHandler.Delete)))
	mux.Handle("GET /api/v1/ws", authed(http.HandlerFunc(wsHub.ServeWS)))

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, "/api/v1/health")(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func printVersion() {
	fmt.Printf("Taskwire Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
