// Package client provides an HTTP client for the turnstile server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/moderatehq/turnstile/internal/metrics"
	"github.com/moderatehq/turnstile/internal/models"
	"github.com/moderatehq/turnstile/internal/pipeline"
)

// Client talks to a running turnstile server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client.
// If baseURL is empty, uses TURNSTILE_SERVER_URL env var or defaults to localhost:8486.
// Timeout can be configured via TURNSTILE_CLIENT_TIMEOUT env var (default 3m, turns include an LLM call).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("TURNSTILE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8486"
	}

	timeout := 3 * time.Minute
	if t := os.Getenv("TURNSTILE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorResponse mirrors the server's error payload.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ProcessTurn submits one turn and returns the pipeline result.
func (c *Client) ProcessTurn(ctx context.Context, req pipeline.TurnRequest) (*pipeline.TurnResult, error) {
	var result pipeline.TurnResult
	if err := c.post(ctx, "/v1/turn", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessage is a convenience wrapper submitting a single user message.
func (c *Client) SendMessage(ctx context.Context, companyID, userID, chatBlockID, content string) (*pipeline.TurnResult, error) {
	return c.ProcessTurn(ctx, pipeline.TurnRequest{
		CompanyID:   companyID,
		UserID:      userID,
		ChatBlockID: chatBlockID,
		Messages:    []models.Message{{Role: models.RoleUser, Content: content}},
	})
}

// Stats returns the server's runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.get(ctx, "/v1/stats", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health checks whether the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%s): %s", errResp.Kind, errResp.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(body))
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
