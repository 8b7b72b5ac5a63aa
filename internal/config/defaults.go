package config

import "time"

const (
	DefaultBaseURL    = "https://protopred.protoqsar.com/API/v2/"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"

	DefaultMetricsAddr = "localhost:9090"
)

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins. It must run after unmarshalling and before
// Validate so that optional-but-defaulted fields are never seen as missing.
//
// Zero-value defaulting means `max_retries: 0` is indistinguishable from
// unset and resolves to DefaultMaxRetries; to disable retries, construct
// the SDK client directly with client.WithRetry(0, delay).
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = DefaultBaseURL
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = DefaultTimeout
	}
	if cfg.Client.MaxRetries == 0 {
		cfg.Client.MaxRetries = DefaultMaxRetries
	}
	if cfg.Client.RetryDelay == 0 {
		cfg.Client.RetryDelay = DefaultRetryDelay
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
}
