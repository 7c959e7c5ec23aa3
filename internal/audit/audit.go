// Package audit emits structured audit events on a best-effort basis.
// Delivery is fire-and-forget: a full buffer drops the event, and a failure
// to deliver never fails the turn that produced it.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Event types emitted by the turn pipeline.
const (
	TypeMessageReceived    = "message_received"
	TypeRuleTriggered      = "rule_triggered"
	TypePersistenceWarning = "persistence_warning"
)

// Event severities.
const (
	SeverityInfo = "info"
	SeverityWarn = "warn"
)

// Event is one structured audit record.
type Event struct {
	Type      string
	Severity  string
	Data      map[string]any
	CompanyID string
	UserID    string
}

// Emitter decouples event emission from delivery. Emit never blocks; a
// single drain goroutine writes events to the logger.
type Emitter struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	logger  *slog.Logger
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewEmitter creates an emitter with the given buffer size and starts its
// drain goroutine.
func NewEmitter(logger *slog.Logger, buffer int) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}

	e := &Emitter{
		ch:     make(chan Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go e.drain()
	return e
}

// Emit queues an event for delivery. If the buffer is full, or the emitter
// is already closed, the event is dropped and counted; the caller is never
// blocked.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return
	}
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped due to a full buffer.
func (e *Emitter) Dropped() uint64 {
	return e.dropped.Load()
}

// Close stops the drain goroutine after flushing queued events. Emit calls
// after Close drop their events instead of panicking.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.ch)
		e.mu.Unlock()
		<-e.done
	})
}

func (e *Emitter) drain() {
	defer close(e.done)
	for ev := range e.ch {
		level := slog.LevelInfo
		if ev.Severity == SeverityWarn {
			level = slog.LevelWarn
		}
		e.logger.LogAttrs(context.Background(), level, "audit event",
			slog.String("type", ev.Type),
			slog.String("severity", ev.Severity),
			slog.String("company_id", ev.CompanyID),
			slog.String("user_id", ev.UserID),
			slog.Any("data", ev.Data),
		)
	}
}
