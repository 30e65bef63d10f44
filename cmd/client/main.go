package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	apiclient "github.com/taskwire/taskwire/internal/client/api"
	"github.com/taskwire/taskwire/internal/client/auth"
	"github.com/taskwire/taskwire/internal/client/cli"
	"github.com/taskwire/taskwire/internal/client/iocli"
	"github.com/taskwire/taskwire/internal/client/reconcile"
	"github.com/taskwire/taskwire/internal/client/router"
	"github.com/taskwire/taskwire/internal/client/storage/boltdb"
	syncsvc "github.com/taskwire/taskwire/internal/client/sync"
	"github.com/taskwire/taskwire/internal/client/transport"
	"github.com/taskwire/taskwire/internal/clock"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Primary server URL")
	mirrorURL := flag.String("mirror", "", "Mirror server URL, tried when the primary fails")
	wsURL := flag.String("ws", "ws://localhost:8080/api/v1/ws", "Websocket endpoint for live sync")
	dbPath := flag.String("db", "taskwire-client.db", "Path to local database")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Команда и ее аргументы
	args := flag.Args()

	// watch держит сессию до Ctrl+C, остальные команды one-shot
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// REST клиент: endpoints пробуются по порядку
	endpoints := []string{*serverURL}
	if *mirrorURL != "" {
		endpoints = append(endpoints, *mirrorURL)
	}
	apiClient := apiclient.NewClient(endpoints...)

	// Сборка sync core
	session := transport.NewSession(transport.DefaultConfig(*wsURL), logger)
	rtr := router.New(session, logger)
	session.OnMessage(rtr.Emit)

	rec := reconcile.New(boltStorage, boltStorage, logger)
	coord := syncsvc.New(apiClient, session, rtr, rec,
		syncsvc.Stores{Items: boltStorage, Queue: boltStorage, Meta: boltStorage},
		clock.New(), logger)
	coord.Start(ctx)

	authSvc := auth.NewService(apiClient, boltStorage, logger)

	c := cli.New(iocli.NewStdio(), authSvc, coord, session, rtr, logger)

	if len(args) == 0 {
		c.PrintUsage()
		os.Exit(1)
	}

	if err := c.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Taskwire Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
