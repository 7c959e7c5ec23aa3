package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/models"
	"github.com/moderatehq/turnstile/internal/pipeline"
	"github.com/moderatehq/turnstile/internal/server"
)

// testLogger creates a logger that writes to stderr for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type stubProcessor struct {
	result *pipeline.TurnResult
	err    error

	gotRequest pipeline.TurnRequest
}

func (p *stubProcessor) ProcessTurn(_ context.Context, req pipeline.TurnRequest) (*pipeline.TurnResult, error) {
	p.gotRequest = req
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newTestServer(t *testing.T, proc *stubProcessor, collector *metrics.Collector) *httptest.Server {
	t.Helper()
	srv := server.New(proc, collector, testLogger(), server.Options{Port: "0", TurnTimeout: 5 * time.Second})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postTurn(t *testing.T, ts *httptest.Server, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/turn", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func validRequest() pipeline.TurnRequest {
	return pipeline.TurnRequest{
		CompanyID:   "acme",
		UserID:      "u-1",
		ChatBlockID: "cb-1",
		Messages:    []models.Message{{Role: models.RoleUser, Content: "hello"}},
	}
}

func TestTurnEndpointSuccess(t *testing.T) {
	proc := &stubProcessor{result: &pipeline.TurnResult{
		Reply:     "hi there",
		MessageID: "m-1",
		Category:  models.Categorization{Category: "greeting", Complexity: models.ComplexityLow},
	}}
	ts := newTestServer(t, proc, nil)

	resp := postTurn(t, ts, validRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result pipeline.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "hi there", result.Reply)
	assert.Equal(t, "m-1", result.MessageID)

	assert.Equal(t, "acme", proc.gotRequest.CompanyID)
}

func TestTurnEndpointConfigurationError(t *testing.T) {
	proc := &stubProcessor{err: &pipeline.ConfigurationError{Reason: "persona attribute set is empty"}}
	ts := newTestServer(t, proc, nil)

	resp := postTurn(t, ts, validRequest())
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "configuration", body.Kind)
	assert.Contains(t, body.Error, "persona attribute set is empty")
}

func TestTurnEndpointDependencyError(t *testing.T) {
	proc := &stubProcessor{err: &pipeline.DependencyError{
		Stage:     pipeline.StageClassify,
		CompanyID: "acme",
		Err:       errors.New("model unreachable"),
	}}
	ts := newTestServer(t, proc, nil)

	resp := postTurn(t, ts, validRequest())
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "dependency", body.Kind)
}

func TestTurnEndpointUnknownErrorIsInternal(t *testing.T) {
	proc := &stubProcessor{err: errors.New("boom")}
	ts := newTestServer(t, proc, nil)

	resp := postTurn(t, ts, validRequest())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestTurnEndpointRejectsMalformedBody(t *testing.T) {
	proc := &stubProcessor{}
	ts := newTestServer(t, proc, nil)

	resp, err := http.Post(ts.URL+"/v1/turn", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubProcessor{}, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	collector := metrics.NewCollector()
	collector.RecordTiming(metrics.OpClassify, 30*time.Millisecond)
	ts := newTestServer(t, &stubProcessor{}, collector)

	resp, err := http.Get(ts.URL + "/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Contains(t, snap.Operations, metrics.OpClassify)
	assert.Equal(t, int64(1), snap.Operations[metrics.OpClassify].Count)
}
