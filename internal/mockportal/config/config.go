// Package config handles configuration for the mock portal server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the mock portal.
//
// Fields:
//   - EndpointAddr: bind address for the REST endpoint.
//   - Code: the passcode every issued challenge expects.
//   - SeedUsername / SeedPassword: a verified demo account created at start
//     (skipped when SeedUsername is empty).
//   - ShutdownTimeout: grace period for in-flight requests on stop.
type Config struct {
	EndpointAddr    string
	Code            string
	SeedUsername    string
	SeedPassword    string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.Code = "123456"
	c.SeedUsername = "demo"
	c.SeedPassword = "demo1234"
	c.ShutdownTimeout = 5 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if cfg.Code == "" {
		return nil, fmt.Errorf("passcode is empty")
	}
	return cfg, nil
}
