// Package config holds the immutable run configuration for loadgrid:
// grid dimensions, target endpoint, display settings. Values come from
// an optional YAML file overridden by command-line flags, are validated
// once at startup, and never change for the duration of a run.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/loadgrid/internal/grid"
)

const (
	// DefaultConcurrency is the number of worker rows when unset
	DefaultConcurrency = 10
	// DefaultRequests is the number of requests per worker when unset
	DefaultRequests = 20
	// DefaultScale is the rendered cell width in terminal columns
	DefaultScale = 2
	// DefaultFrameInterval is the TUI redraw interval (10 fps)
	DefaultFrameInterval = 100 * time.Millisecond
	// DefaultReportInterval is the console reporter polling interval
	DefaultReportInterval = time.Second
	// DefaultRequestTimeout bounds each individual request
	DefaultRequestTimeout = 10 * time.Second

	// MaxConcurrency caps worker rows to keep the grid renderable
	MaxConcurrency = 1000
	// MaxRequests caps requests per worker
	MaxRequests = 10000
)

// Config is the full run configuration
type Config struct {
	Target  string
	Method  string
	Body    string
	Headers map[string]string

	// Grid dimensions: Concurrency worker rows, Requests columns each
	Concurrency int
	Requests    int

	// Display settings
	Scale          int
	FrameInterval  time.Duration
	ReportInterval time.Duration

	RampUp         time.Duration
	RequestTimeout time.Duration

	NoUI bool
}

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Method:         "GET",
		Concurrency:    DefaultConcurrency,
		Requests:       DefaultRequests,
		Scale:          DefaultScale,
		FrameInterval:  DefaultFrameInterval,
		ReportInterval: DefaultReportInterval,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// fileConfig is the YAML shape of a config file. Durations are plain
// strings ("2s", "500ms") parsed with time.ParseDuration.
type fileConfig struct {
	Target  string            `yaml:"target"`
	Method  string            `yaml:"method"`
	Body    string            `yaml:"body"`
	Headers map[string]string `yaml:"headers"`

	Concurrency int `yaml:"concurrency"`
	Requests    int `yaml:"requests"`
	Scale       int `yaml:"scale"`

	FrameInterval  string `yaml:"frame_interval"`
	ReportInterval string `yaml:"report_interval"`
	RampUp         string `yaml:"ramp_up"`
	RequestTimeout string `yaml:"request_timeout"`

	NoUI bool `yaml:"no_ui"`
}

// Load reads a YAML configuration file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Default()
	cfg.Target = fc.Target
	cfg.Body = fc.Body
	cfg.Headers = fc.Headers
	cfg.NoUI = fc.NoUI
	if fc.Method != "" {
		cfg.Method = fc.Method
	}
	if fc.Concurrency != 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if fc.Requests != 0 {
		cfg.Requests = fc.Requests
	}
	if fc.Scale != 0 {
		cfg.Scale = fc.Scale
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"frame_interval", fc.FrameInterval, &cfg.FrameInterval},
		{"report_interval", fc.ReportInterval, &cfg.ReportInterval},
		{"ramp_up", fc.RampUp, &cfg.RampUp},
		{"request_timeout", fc.RequestTimeout, &cfg.RequestTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s in config file: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

// Validate checks the configuration before a run. Bad grid dimensions
// surface as grid.ErrInvalidDimensions so startup fails the same way
// the grid constructor would.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(c.Target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target must be an absolute URL: %q", c.Target)
	}
	if c.Concurrency <= 0 || c.Requests <= 0 {
		return fmt.Errorf("%w: %dx%d", grid.ErrInvalidDimensions, c.Concurrency, c.Requests)
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency cannot exceed %d", MaxConcurrency)
	}
	if c.Requests > MaxRequests {
		return fmt.Errorf("requests per worker cannot exceed %d", MaxRequests)
	}
	if c.RampUp < 0 {
		return fmt.Errorf("ramp-up duration cannot be negative")
	}
	return nil
}
