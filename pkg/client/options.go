package client

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. The value is normalized at
// construction: the scheme is forced to https and a trailing slash is
// appended when missing.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client, e.g. to tune the connection
// pool or transport. The client's redirect policy is still replaced with
// the SDK's downgrade-refusing policy.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logging collaborator. Defaults to a no-op logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder. Defaults to none.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTimeout bounds one attempt, not the whole retry sequence.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetry sets the maximum retry count and the base backoff delay.
// Attempt k (0-indexed) waits delay * 2^k before the next attempt; there is
// no jitter. retryMax 0 disables retries.
func WithRetry(retryMax int, delay time.Duration) Option {
	return func(c *Client) {
		if retryMax >= 0 {
			c.retryMax = retryMax
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithUserAgent sets a custom User-Agent string.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}
