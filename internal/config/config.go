package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	APIBaseURL string `env:"API_BASE_URL,required,notEmpty"`
	Port       string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Upstream hypermedia API
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ResolveConcurrency  int           `env:"RESOLVE_CONCURRENCY" envDefault:"8"`
	BreakerMaxFailures  int           `env:"BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerResetTimeout time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`

	// Presentation
	DisplayTimezone   string `env:"DISPLAY_TIMEZONE" envDefault:"UTC"`
	ExportColumnsPath string `env:"EXPORT_COLUMNS_PATH"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("config: invalid API_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: API_BASE_URL must be http or https, got %q", c.APIBaseURL)
	}
	if c.ResolveConcurrency < 0 {
		return fmt.Errorf("config: RESOLVE_CONCURRENCY must be >= 0, got %d", c.ResolveConcurrency)
	}
	if c.BreakerMaxFailures < 0 {
		return fmt.Errorf("config: BREAKER_MAX_FAILURES must be >= 0, got %d", c.BreakerMaxFailures)
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("config: invalid DISPLAY_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the display location. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
