// Package dexscreener is a read-only client for the DexScreener public API.
// All fetches share one retry policy: bounded attempts, fixed delay, and a
// linearly scaled delay when the API answers 429. Exhausted retries surface
// as ErrNoData, which callers treat as an expected empty result rather than
// a hard failure.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.dexscreener.com"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
)

// ErrNoData indicates all retry attempts were exhausted without a usable
// response body.
var ErrNoData = errors.New("no data from dexscreener")

// Client issues HTTP GETs against the DexScreener API.
type Client struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets the total number of fetch attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the delay between failed attempts.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new DexScreener API client.
// An empty baseURL selects the public endpoint.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches baseURL+path and returns the raw response body.
// Attempts are capped at maxRetries; a 429 response scales the delay by the
// attempt number before the next try. Returns ErrNoData once attempts are
// exhausted, wrapping the last underlying error.
func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, rateLimited, err := c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		delay := c.retryDelay
		if rateLimited {
			// Rate limits back off harder: delay scales with the attempt number.
			delay = time.Duration(attempt) * c.retryDelay
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrNoData, c.maxRetries, lastErr)
}

// attempt performs a single GET. rateLimited reports whether the failure was
// an HTTP 429 so the caller can scale the next delay.
func (c *Client) attempt(ctx context.Context, url string) (body json.RawMessage, rateLimited bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("rate limited (HTTP 429)")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	return data, false, nil
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
