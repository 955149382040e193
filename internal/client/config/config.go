package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the portal client.
//
// Fields:
//   - BaseURL: scheme://host of the patient portal REST API.
//   - RequestTimeout: per-call deadline applied to every API request.
//   - OTPLength: number of digits a one-time passcode must have.
//   - CacheDSN: SQLite DSN of the local profile cache.
//   - LogLevel / LogFormat: slog level name and "text" or "json".
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	OTPLength      int
	CacheDSN       string
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://capstone-api-johndev.onrender.com"
	c.RequestTimeout = 15 * time.Second
	c.OTPLength = 6
	c.CacheDSN = "portal.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("otp length must be between 4 and 10, got %d", c.OTPLength)
	}
	return nil
}

// LoadConfig constructs a Config from defaults, then overlays JSON (if -c is
// given), environment (optionally seeded from a dotenv file) and finally
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
