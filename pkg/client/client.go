// Package client implements the ProtoPRED SDK client: request construction,
// model validation, transport with retry, and response normalization around
// the single prediction POST endpoint.
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/protoqsar/protopred-go/pkg/errors"
)

const Version = "0.1.0"

// DefaultBaseURL is the official ProtoPRED API v2 endpoint.
const DefaultBaseURL = "https://protopred.protoqsar.com/API/v2/"

// Default transport tunables, matching the service's documented client
// settings.
const (
	defaultTimeout    = 30 * time.Second
	defaultRetryMax   = 3
	defaultRetryDelay = 1 * time.Second
)

// Logger defines the logging collaborator used by the Client. It is injected
// at construction time; the client holds no global logging state and never
// passes account credentials to it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// MetricsRecorder receives transport-level observations. The zero value of
// the client records nothing; wire a recorder with WithMetrics.
type MetricsRecorder interface {
	// ObserveRequest records one completed Predict call with its outcome
	// ("ok", "auth", "api", "network", "timeout", "parse") and duration.
	ObserveRequest(module string, outcome string, seconds float64)

	// IncRetry records one retried attempt.
	IncRetry(module string)
}

// Credentials are the three opaque account strings required by every
// request. They are treated as secrets: the client never includes them in
// log lines or error messages.
type Credentials struct {
	AccountToken     string
	AccountSecretKey string
	AccountUser      string
}

func (c Credentials) validate() error {
	if c.AccountToken == "" || c.AccountSecretKey == "" || c.AccountUser == "" {
		return errors.Config("account token, secret key and user are all required")
	}
	return nil
}

// Client is the ProtoPRED SDK client. It is safe to construct once and use
// for the lifetime of the process; the underlying http.Client provides the
// reusable connection pool.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     Logger
	metrics    MetricsRecorder
	userAgent  string
	timeout    time.Duration
	retryMax   int
	retryDelay time.Duration
}

// errSchemeDowngrade marks a redirect that would move the request off https.
var errSchemeDowngrade = errors.New(errors.ErrCodeNetwork,
	"refused redirect that downgrades the connection scheme")

// NewClient creates a ProtoPRED client. The base URL always ends up on the
// https scheme with a trailing slash, even when configured otherwise; a
// plain-http base URL is upgraded rather than rejected.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		creds:      creds,
		logger:     noopLogger{},
		userAgent:  fmt.Sprintf("protopred-go/%s", Version),
		timeout:    defaultTimeout,
		retryMax:   defaultRetryMax,
		retryDelay: defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	normalized, err := normalizeBaseURL(c.baseURL)
	if err != nil {
		return nil, err
	}
	if normalized != c.baseURL {
		c.logger.Infof("base URL normalized to %s", normalized)
	}
	c.baseURL = normalized

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	// The redirect policy is non-negotiable: a redirect may never move the
	// request off https, whatever http.Client the caller supplied.
	c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return errSchemeDowngrade
		}
		if len(via) >= 10 {
			return fmt.Errorf("stopped after 10 redirects")
		}
		return nil
	}

	c.logger.Infof("ProtoPRED client initialized for user %s", c.creds.AccountUser)
	c.logger.Debugf("base URL: %s, timeout: %s, retries: %d", c.baseURL, c.timeout, c.retryMax)
	return c, nil
}

// normalizeBaseURL forces the https scheme and a trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.Config("base URL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Config("invalid base URL").WithCause(err)
	}
	switch u.Scheme {
	case "https":
	case "http":
		u.Scheme = "https"
	default:
		return "", errors.Config(fmt.Sprintf("base URL scheme %q is not supported", u.Scheme))
	}
	if u.Host == "" {
		return "", errors.Config("base URL must include a host")
	}
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}

// BaseURL returns the normalized endpoint the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the client's idle pooled connections. The client must not
// be used after Close; construct a new one instead.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) observe(module string, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(module, outcome, time.Since(start).Seconds())
	}
}
