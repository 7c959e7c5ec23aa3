// Package main provides the HTTP server for turnstile.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moderatehq/turnstile/internal/audit"
	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/db"
	"github.com/moderatehq/turnstile/internal/llm"
	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/pipeline"
	"github.com/moderatehq/turnstile/internal/server"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("starting turnstile-server", "port", cfg.ServerPort, "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.DBURL,
		Namespace: cfg.DBNamespace,
		Database:  cfg.DBDatabase,
		Username:  cfg.DBUser,
		Password:  cfg.DBPass,
		AuthLevel: cfg.DBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("TURNSTILE_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}
	cancel()
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	completer, err := llm.NewCompleter(initCtx, cfg)
	if err != nil {
		initCancel()
		logger.Error("failed to create completer", "error", err)
		os.Exit(1)
	}
	classifier, err := llm.NewClassifier(initCtx, cfg)
	initCancel()
	if err != nil {
		logger.Error("failed to create classifier", "error", err)
		os.Exit(1)
	}

	emitter := audit.NewEmitter(logger, cfg.AuditBuffer)
	defer emitter.Close()

	collector := metrics.NewCollector()

	pipe := pipeline.New(dbClient, classifier, completer, emitter, collector, logger, pipeline.Options{
		RewriteScope: cfg.RewriteScope,
		HistoryLimit: cfg.HistoryLimit,
	})

	srv := server.New(pipe, collector, logger, server.Options{
		Port:        cfg.ServerPort,
		TurnTimeout: cfg.TurnTimeout,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
