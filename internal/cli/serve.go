package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moderatehq/turnstile/internal/audit"
	"github.com/moderatehq/turnstile/internal/config"
	"github.com/moderatehq/turnstile/internal/llm"
	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/pipeline"
	"github.com/moderatehq/turnstile/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the turn-processing HTTP server",
	Long: `Run the turn-processing HTTP server in the foreground until interrupted.
Equivalent to the turnstile-server binary.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	completer, err := llm.NewCompleter(initCtx, cfg)
	if err != nil {
		initCancel()
		return fmt.Errorf("create completer: %w", err)
	}
	classifier, err := llm.NewClassifier(initCtx, cfg)
	initCancel()
	if err != nil {
		return fmt.Errorf("create classifier: %w", err)
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

	return srv.Run(runCtx)
}
