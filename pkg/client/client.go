// Package client provides HTTP client functionality to communicate with a
// running svcdeck daemon.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client talks to the svcdeck HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // optional logger for client operations
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8099/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new svcdeck API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *Client) IsReachable(ctx context.Context) bool {
	var sts []ServiceStatus
	if err := c.getJSON(ctx, c.baseURL+"/status", &sts); err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	return true
}

// Status returns the status of every registered service.
func (c *Client) Status(ctx context.Context) ([]ServiceStatus, error) {
	var sts []ServiceStatus
	if err := c.getJSON(ctx, c.baseURL+"/status", &sts); err != nil {
		return nil, err
	}
	return sts, nil
}

// StatusOne returns the status of one service.
func (c *Client) StatusOne(ctx context.Context, name string) (ServiceStatus, error) {
	var st ServiceStatus
	if err := c.getJSON(ctx, c.baseURL+"/status/"+name, &st); err != nil {
		return ServiceStatus{}, err
	}
	return st, nil
}

// CheckHealth runs a health check and returns the verdict.
func (c *Client) CheckHealth(ctx context.Context, name string) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/health/"+name, &resp); err != nil {
		return "", err
	}
	return resp.Health, nil
}

// Start starts a service and its dependencies.
func (c *Client) Start(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/start/"+name, nil)
}

// Stop stops a service. The returned bool reports whether a listening
// process was actually killed.
func (c *Client) Stop(ctx context.Context, name string) (bool, error) {
	var resp stopResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/stop/"+name, &resp); err != nil {
		return false, err
	}
	return resp.Stopped, nil
}

// Restart restarts a service.
func (c *Client) Restart(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/restart/"+name, nil)
}

// StartAll starts every service, returning one outcome line per service.
func (c *Client) StartAll(ctx context.Context) ([]string, error) {
	var resp resultsResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/start-all", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// StopAll stops every service, returning one outcome line per service.
func (c *Client) StopAll(ctx context.Context) ([]string, error) {
	var resp resultsResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/stop-all", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SetAutoRestart toggles the auto-restart flag for a service.
func (c *Client) SetAutoRestart(ctx context.Context, name string, enabled bool) error {
	url := c.baseURL + "/autorestart/" + name + "?enabled=" + strconv.FormatBool(enabled)
	return c.do(ctx, http.MethodPost, url, nil)
}

// TailLogs returns the last n lines of a service's log.
func (c *Client) TailLogs(ctx context.Context, name string, n int) ([]LogEntry, error) {
	var entries []LogEntry
	url := c.baseURL + "/logs/" + name + "?lines=" + strconv.Itoa(n)
	if err := c.getJSON(ctx, url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearLogs truncates a service's log file.
func (c *Client) ClearLogs(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/logs/"+name, nil)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, out)
}

// do performs the request, maps error bodies to errors, and decodes the
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", url)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		c.logger.Error("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
		return fmt.Errorf("API error: %s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
