package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Account: AccountConfig{Token: "tok", SecretKey: "sec", User: "user"},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_RequiredCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Account.Token = "" }, "account.token"},
		{"missing secret", func(c *Config) { c.Account.SecretKey = "" }, "account.secret_key"},
		{"missing user", func(c *Config) { c.Account.User = "" }, "account.user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CredentialValuesNeverInError(t *testing.T) {
	cfg := validConfig()
	cfg.Account.Token = "super-secret-token"
	cfg.Account.SecretKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret-token")
}

func TestValidate_ClientSection(t *testing.T) {
	cfg := validConfig()
	cfg.Client.BaseURL = "://not-a-url"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Client.Timeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Client.MaxRetries = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_LogSection(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidate_MetricsNeedAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultBaseURL, cfg.Client.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Client.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.Client.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.Client.RetryDelay)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultMetricsAddr, cfg.Metrics.Addr)

	// Explicit settings always win.
	cfg = &Config{Client: ClientConfig{Timeout: 5 * time.Second}}
	ApplyDefaults(cfg)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)

	// Zero-value defaulting: max_retries 0 is treated as unset and resolves
	// to the default, as documented on ApplyDefaults.
	cfg = &Config{Client: ClientConfig{MaxRetries: 0}}
	ApplyDefaults(cfg)
	assert.Equal(t, DefaultMaxRetries, cfg.Client.MaxRetries)

	// Nil must not panic.
	ApplyDefaults(nil)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protopred.yaml")
	content := `
account:
  token: tok
  secret_key: sec
  user: someone@example.com
client:
  timeout: 10s
  max_retries: 5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", cfg.Account.User)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 5, cfg.Client.MaxRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultBaseURL, cfg.Client.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protopred.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  token: tok\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROTOPRED_ACCOUNT_TOKEN", "tok")
	t.Setenv("PROTOPRED_ACCOUNT_SECRET_KEY", "sec")
	t.Setenv("PROTOPRED_ACCOUNT_USER", "user")
	t.Setenv("PROTOPRED_CLIENT_MAX_RETRIES", "7")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Account.Token)
	assert.Equal(t, 7, cfg.Client.MaxRetries)
	assert.Equal(t, DefaultBaseURL, cfg.Client.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protopred.yaml")
	content := `
account:
  token: from-file
  secret_key: sec
  user: user
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("PROTOPRED_ACCOUNT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Account.Token)
}
