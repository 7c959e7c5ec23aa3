package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := NewEmitter(logger, 8)
	e.Emit(Event{
		Type:      TypeMessageReceived,
		Severity:  SeverityInfo,
		CompanyID: "acme",
		UserID:    "u-1",
		Data:      map[string]any{"category": "greeting"},
	})
	e.Close()

	out := buf.String()
	assert.Contains(t, out, TypeMessageReceived)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "greeting")
}

func TestEmitterNeverBlocks(t *testing.T) {
	// A handler that blocks forever would wedge the drain goroutine; Emit
	// must still return promptly and count drops once the buffer fills.
	blocked := make(chan struct{})
	logger := slog.New(blockingHandler{release: blocked})

	e := NewEmitter(logger, 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			e.Emit(Event{Type: TypeRuleTriggered, Severity: SeverityInfo})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	require.Greater(t, e.Dropped(), uint64(0))
	close(blocked)
}

func TestEmitterEmitAfterCloseDrops(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := NewEmitter(logger, 8)
	e.Close()

	// Must not panic on the closed channel; the event is dropped instead.
	e.Emit(Event{Type: TypePersistenceWarning, Severity: SeverityWarn})

	assert.Equal(t, uint64(1), e.Dropped())
	assert.NotContains(t, buf.String(), TypePersistenceWarning)
}

type blockingHandler struct {
	release chan struct{}
}

func (h blockingHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h blockingHandler) Handle(_ context.Context, _ slog.Record) error {
	<-h.release
	return nil
}

func (h blockingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h blockingHandler) WithGroup(_ string) slog.Handler      { return h }
