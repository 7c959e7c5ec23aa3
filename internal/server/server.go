// Package server exposes the turn pipeline over HTTP with lifecycle management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/pipeline"
)

// TurnProcessor runs one turn through the pipeline.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, req pipeline.TurnRequest) (*pipeline.TurnResult, error)
}

// Options configure the HTTP server.
type Options struct {
	Port string
	// TurnTimeout bounds the processing of a single turn, including the
	// completion call.
	TurnTimeout time.Duration
}

// Server wraps the HTTP server with dependencies and lifecycle management.
type Server struct {
	pipe    TurnProcessor
	metrics *metrics.Collector
	logger  *slog.Logger
	opts    Options
	http    *http.Server
}

// New creates a server. The metrics collector may be nil; /v1/stats then
// returns an empty snapshot.
func New(pipe TurnProcessor, collector *metrics.Collector, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipe:    pipe,
		metrics: collector,
		logger:  logger,
		opts:    opts,
	}
	s.http = &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: opts.TurnTimeout + 10*time.Second, // turn processing includes an LLM call
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler, wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turn", s.handleTurn)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return LoggingMiddleware(s.logger)(mux)
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req pipeline.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: "request"})
		return
	}

	ctx := r.Context()
	if s.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TurnTimeout)
		defer cancel()
	}

	result, err := s.pipe.ProcessTurn(ctx, req)
	if err != nil {
		status, kind := classifyError(err)
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// classifyError maps pipeline failures to HTTP statuses: bad tenant
// configuration is the caller's problem, a failed collaborator is ours.
func classifyError(err error) (int, string) {
	switch {
	case pipeline.IsConfiguration(err):
		return http.StatusUnprocessableEntity, "configuration"
	case pipeline.IsDependency(err):
		return http.StatusBadGateway, "dependency"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
