package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PROTOPRED"

// newViper builds a pre-configured Viper instance: YAML file type,
// PROTOPRED_ env prefix, automatic env binding, and a key replacer that
// maps "." → "_" so that nested keys like "account.token" resolve to
// "PROTOPRED_ACCOUNT_TOKEN".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the YAML file at configPath, merges any PROTOPRED_*
// environment variable overrides, applies defaults for unset fields, and
// validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PROTOPRED_* environment
// variables, with no config file required.
//
// Environment variable naming convention:
//
//	PROTOPRED_<SECTION>_<FIELD>   e.g.  PROTOPRED_ACCOUNT_TOKEN
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// Viper only surfaces automatic-env values for keys it already knows;
	// bind the full key set explicitly so a file-less load still sees them.
	for _, key := range []string{
		"account.token", "account.secret_key", "account.user",
		"client.base_url", "client.timeout", "client.max_retries",
		"client.retry_delay", "client.user_agent",
		"log.level", "log.format", "log.output",
		"metrics.enabled", "metrics.addr",
	} {
		_ = v.BindEnv(key)
	}
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}
