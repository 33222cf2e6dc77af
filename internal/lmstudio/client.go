// Package lmstudio wraps the local LM Studio model host: an HTTP readiness
// check against its OpenAI-compatible endpoint, model lifecycle through the
// lms CLI, and streaming of the server log into a workspace file. The harness
// needs readiness and pass-through logging only, not a full chat client.
package lmstudio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to one LM Studio instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	lmsPath    string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (tests use this).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLMSPath overrides the lms executable path (tests use this).
func WithLMSPath(path string) ClientOption {
	return func(c *Client) { c.lmsPath = path }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given OpenAI-compatible base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		lmsPath:    "lms",
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Ready checks whether the server answers on its models endpoint.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("building readiness request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model server not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server at %s returned %s", c.baseURL, resp.Status)
	}
	return nil
}

// WaitReady polls Ready until it succeeds or the deadline passes.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = c.Ready(ctx); lastErr == nil {
			return nil
		}
		c.logger.Debug("model server not ready yet", "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("model server not ready after %v: %w", timeout, lastErr)
}

// AgentEnv returns the environment variables that point OpenAI-compatible
// agent CLIs at the local server. The API key is required by most clients
// but ignored by LM Studio.
func (c *Client) AgentEnv() map[string]string {
	return map[string]string{
		"OPENAI_API_BASE": c.baseURL,
		"OPENAI_BASE_URL": c.baseURL,
		"OPENAI_API_KEY":  "lm-studio",
	}
}
