// Package config loads runtime settings for the onavg tools.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/meenmo/onavg/averaging"
	"github.com/meenmo/onavg/curve"
)

// EnvPrefix prefixes environment overrides, e.g. ONAVG_DATABASE_DSN.
const EnvPrefix = "ONAVG"

type Config struct {
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Rate      RateConfig      `mapstructure:"rate"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BootstrapConfig holds the curve solver parameters.
type BootstrapConfig struct {
	// Tolerance is the par equation residual at which Newton-Raphson stops.
	Tolerance float64 `mapstructure:"tolerance"`

	MaxIterations int `mapstructure:"max_iterations"`

	// MinDiscountFactor floors discount factors during the solve.
	MinDiscountFactor float64 `mapstructure:"min_discount_factor"`

	// DerivativeThreshold is the minimum derivative magnitude before Newton gives up.
	DerivativeThreshold float64 `mapstructure:"derivative_threshold"`
}

type RateConfig struct {
	// Method is "approx" or "forward".
	Method string `mapstructure:"method"`
}

type DatabaseConfig struct {
	DSN          string        `mapstructure:"dsn"`
	Table        string        `mapstructure:"table"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// CacheConfig enables the Redis fixing cache when Addr is set.
type CacheConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Default returns the built-in settings.
func Default() *Config {
	opts := curve.DefaultOptions()
	return &Config{
		Bootstrap: BootstrapConfig{
			Tolerance:           opts.Tolerance,
			MaxIterations:       opts.MaxIterations,
			MinDiscountFactor:   opts.MinDiscountFactor,
			DerivativeThreshold: opts.DerivativeThreshold,
		},
		Rate: RateConfig{
			Method: averaging.MethodApprox,
		},
		Database: DatabaseConfig{
			Table:        "overnight_fixings",
			QueryTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("bootstrap.tolerance", def.Bootstrap.Tolerance)
	v.SetDefault("bootstrap.max_iterations", def.Bootstrap.MaxIterations)
	v.SetDefault("bootstrap.min_discount_factor", def.Bootstrap.MinDiscountFactor)
	v.SetDefault("bootstrap.derivative_threshold", def.Bootstrap.DerivativeThreshold)
	v.SetDefault("rate.method", def.Rate.Method)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("database.table", def.Database.Table)
	v.SetDefault("database.query_timeout", def.Database.QueryTimeout)
	v.SetDefault("cache.addr", def.Cache.Addr)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("logging.development", def.Logging.Development)
}

// Load reads configuration from path over the defaults. An empty path uses the
// defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand ${VAR} string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Bootstrap.Tolerance <= 0 {
		return fmt.Errorf("bootstrap.tolerance must be positive, got %g", c.Bootstrap.Tolerance)
	}
	if c.Bootstrap.MaxIterations <= 0 {
		return fmt.Errorf("bootstrap.max_iterations must be positive, got %d", c.Bootstrap.MaxIterations)
	}
	if c.Bootstrap.MinDiscountFactor <= 0 || c.Bootstrap.MinDiscountFactor >= 1 {
		return fmt.Errorf("bootstrap.min_discount_factor must be in (0, 1), got %g", c.Bootstrap.MinDiscountFactor)
	}
	if c.Bootstrap.DerivativeThreshold <= 0 {
		return fmt.Errorf("bootstrap.derivative_threshold must be positive, got %g", c.Bootstrap.DerivativeThreshold)
	}
	if _, err := averaging.ComputationByName(c.Rate.Method); err != nil {
		return fmt.Errorf("rate.method: %w", err)
	}
	if c.Database.Table == "" {
		return fmt.Errorf("database.table must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %s", c.Database.QueryTimeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// CurveOptions converts the bootstrap settings for the curve solver.
func (c *Config) CurveOptions() curve.Options {
	return curve.Options{
		Tolerance:           c.Bootstrap.Tolerance,
		MaxIterations:       c.Bootstrap.MaxIterations,
		MinDiscountFactor:   c.Bootstrap.MinDiscountFactor,
		DerivativeThreshold: c.Bootstrap.DerivativeThreshold,
	}
}
