// Package ollama is the inference backend client used by the conversational
// core. It speaks the non-streaming form of Ollama's /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/llm"
	"github.com/papercomputeco/tickertape/pkg/logger"
)

// DefaultTimeout bounds a single chat call. LLM requests can be slow.
const DefaultTimeout = 5 * time.Minute

// BackendError is an explicit error reported by the inference backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return "ollama: " + e.Message
	}
	return fmt.Sprintf("ollama returned %d: %s", e.Status, e.Message)
}

// Client calls an Ollama-compatible server.
type Client struct {
	host       string
	model      string
	logger     *zap.Logger
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for the server at host (e.g. "http://localhost:11434").
func New(host, model string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		logger: log,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Chat sends the ordered history and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	streaming := false
	req := llm.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &streaming,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.host + "/api/chat"
	c.logger.Debug("sending chat request",
		zap.String("url", url),
		zap.String("model", c.model),
		zap.Int("message_count", len(messages)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", &BackendError{Status: httpResp.StatusCode, Message: errorMessage(body)}
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return "", &BackendError{Message: resp.Error}
	}
	if resp.Message.Role != "" && resp.Message.Role != llm.RoleAssistant {
		return "", fmt.Errorf("unexpected response role %q", resp.Message.Role)
	}

	c.logger.Debug("received chat response",
		zap.String("model", resp.Model),
		zap.String("content_preview", logger.Truncate(resp.Message.Content, 100)),
		zap.Duration("duration", time.Since(start)),
	)

	return resp.Message.Content, nil
}

// Version probes GET /api/version and returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/version", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return "", &BackendError{Status: httpResp.StatusCode, Message: errorMessage(body)}
	}

	var v llm.VersionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&v); err != nil {
		return "", fmt.Errorf("decode version: %w", err)
	}
	return v.Version, nil
}

// errorMessage prefers the backend's {"error": "..."} body over raw text.
func errorMessage(body []byte) string {
	var e llm.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
