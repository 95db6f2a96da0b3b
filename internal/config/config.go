// Package config resolves stocklens settings from flags, environment, .env
// files and an optional YAML file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, so api.base_url is
// read from STOCKLENS_API_BASE_URL.
const EnvPrefix = "STOCKLENS"

// Config keys.
const (
	KeyBaseURL         = "api.base_url"
	KeyTimeoutMS       = "api.timeout_ms"
	KeyRetryAttempts   = "retry.max_attempts"
	KeyRetryInitial    = "retry.initial_delay"
	KeyRetryMax        = "retry.max_delay"
	KeyRetryMultiplier = "retry.multiplier"
	KeyJournalPath     = "journal.path"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeoutMS = 30000
)

// Config is the resolved application configuration.
type Config struct {
	BaseURL     string
	JournalPath string
	LogLevel    string
	LogFormat   string
	Retry       common.RetryOptions
	Timeout     time.Duration
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyTimeoutMS, DefaultTimeoutMS)
	v.SetDefault(KeyRetryAttempts, 1)
	v.SetDefault(KeyRetryInitial, 500*time.Millisecond)
	v.SetDefault(KeyRetryMax, 5*time.Second)
	v.SetDefault(KeyRetryMultiplier, 2.0)
	v.SetDefault(KeyJournalPath, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// BindEnv makes v read STOCKLENS_* overrides for dotted keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads and validates the configuration held by v. Defaults are applied
// for any key v does not already carry.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		BaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString(KeyBaseURL)), "/"),
		Timeout:     time.Duration(v.GetInt64(KeyTimeoutMS)) * time.Millisecond,
		JournalPath: ExpandPath(strings.TrimSpace(v.GetString(KeyJournalPath))),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		Retry: common.RetryOptions{
			MaxAttempts:  v.GetInt(KeyRetryAttempts),
			InitialDelay: v.GetDuration(KeyRetryInitial),
			MaxDelay:     v.GetDuration(KeyRetryMax),
			Multiplier:   v.GetFloat64(KeyRetryMultiplier),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", common.ErrInvalidConfig, KeyBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeyTimeoutMS)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: %s must be at least 1", common.ErrInvalidConfig, KeyRetryAttempts)
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		return fmt.Errorf("%w: retry delays must not be negative", common.ErrInvalidConfig)
	}
	return nil
}
