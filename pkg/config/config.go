// Package config loads server settings from defaults, an optional config
// file and TRIPMCP_* environment variables, in increasing precedence.
// Callers pass explicitly set command-line flags as overrides, which win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/spf13/viper"
)

const EnvPrefix = "TRIPMCP"

type Config struct {
	Debug      bool             `mapstructure:"debug"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Search     SearchConfig     `mapstructure:"search"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Registry   RegistryConfig   `mapstructure:"registry"`
}

type HTTPConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Only        bool     `mapstructure:"only"`
	Addr        string   `mapstructure:"addr"`
	BaseURL     string   `mapstructure:"base_url"`
	AuthType    string   `mapstructure:"auth_type"`
	AuthToken   string   `mapstructure:"auth_token"`
	RateLimit   float64  `mapstructure:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
}

type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type SearchConfig struct {
	CacheSize        int           `mapstructure:"cache_size"`
	TTL              time.Duration `mapstructure:"ttl"`
	DefaultDeparture string        `mapstructure:"default_departure"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	Environment string  `mapstructure:"environment"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type RegistryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	URL               string        `mapstructure:"url"`
	ServiceName       string        `mapstructure:"service_name"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("http.enabled", false)
	v.SetDefault("http.only", false)
	v.SetDefault("http.addr", ":7082")
	v.SetDefault("http.base_url", "")
	v.SetDefault("http.auth_type", core.AuthNone)
	v.SetDefault("http.auth_token", "")
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.rate_burst", 20)
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("http.trust_proxy", false)

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.addr", ":9090")

	v.SetDefault("search.cache_size", cache.DefaultSize)
	v.SetDefault("search.ttl", cache.DefaultTTL)
	v.SetDefault("search.default_departure", "09:00")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("registry.enabled", false)
	v.SetDefault("registry.url", "")
	v.SetDefault("registry.service_name", "tripmcp")
	v.SetDefault("registry.heartbeat_interval", 30*time.Second)
}

// New returns a viper instance with defaults and environment binding but no file
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OTLP_ENDPOINT is the conventional name used by deployments
	_ = v.BindEnv("tracing.endpoint", EnvPrefix+"_TRACING_ENDPOINT", "OTLP_ENDPOINT")
	return v
}

// Load reads path (if non-empty), applies overrides and validates the result
func Load(path string, overrides map[string]any) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if _, err := trip.ParseClock(c.Search.DefaultDeparture); err != nil {
		errs = append(errs, fmt.Errorf("search.default_departure: %w", err))
	}
	if c.Search.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("search.cache_size must be positive, got %d", c.Search.CacheSize))
	}
	if c.Search.TTL <= 0 {
		errs = append(errs, fmt.Errorf("search.ttl must be positive, got %s", c.Search.TTL))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("http.rate_limit and http.rate_burst must not be negative"))
	}
	if c.HTTP.Only && !c.HTTP.Enabled {
		c.HTTP.Enabled = true
	}
	if c.HTTP.Enabled {
		if _, err := core.NewAuthenticator(c.HTTP.AuthType, c.HTTP.AuthToken); err != nil {
			errs = append(errs, fmt.Errorf("http.auth: %w", err))
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", c.Tracing.SampleRatio))
	}
	if c.Registry.Enabled && c.Registry.URL == "" {
		errs = append(errs, errors.New("registry.url is required when registry.enabled is set"))
	}

	return errors.Join(errs...)
}

// LogLevel is the slog level name implied by Debug
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return "info"
}
