package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is applied when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Client sends envelopes to a remote agent endpoint (e.g. "http://localhost:5003/a2a").
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient gets DefaultTimeout.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Endpoint returns the remote endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts msg and decodes the agent's reply envelope.
func (c *Client) Send(ctx context.Context, msg Message) (Message, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return Message{}, fmt.Errorf("marshal message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Message{}, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Message{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("agent returned %d: %s", httpResp.StatusCode, string(respBody))
	}

	var reply Message
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return Message{}, fmt.Errorf("unmarshal reply: %w", err)
	}
	return reply, nil
}

// Ask sends a one-off text request and returns the reply text.
func (c *Client) Ask(ctx context.Context, text string) (string, error) {
	reply, err := c.Send(ctx, NewTextMessage("", text))
	if err != nil {
		return "", err
	}
	if !reply.IsText() {
		return "", fmt.Errorf("agent replied with %q content", reply.Content.Type)
	}
	return reply.Content.Text, nil
}
