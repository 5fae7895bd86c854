package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/testivid/testivid/internal/shared"
)

// Client provides typed access to the Testivid backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client for the given base URL.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://app.testivid.com"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// SetToken sets the bearer token attached to authenticated requests.
// An empty token reverts the client to anonymous requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the currently configured bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the backend's error envelope. Some endpoints use "error",
// others "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs a JSON request and decodes the response into result (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.asError(resp.StatusCode, data)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// asError maps a non-2xx response to an error carrying the backend message
// where the body provides one.
func (c *Client) asError(status int, body []byte) error {
	var eb errorBody
	message := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			message = eb.Error
		} else if eb.Message != "" {
			message = eb.Message
		}
	}

	if status == http.StatusUnauthorized {
		if message == "" {
			return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, status)
		}
		return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, message)
	}

	if message == "" {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, status)
	}
	return fmt.Errorf("%w: %s", shared.ErrAPIRequest, message)
}
