package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/aldente/internal/flagx"
	"github.com/dmitrijs2005/aldente/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// mean "not set" and leave the current Config value in place.
type JsonConfig struct {
	BaseURL        string         `json:"base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	OTPLength      int            `json:"otp_length"`
	CacheDSN       string         `json:"cache_dsn"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Without the flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OTPLength > 0 {
		cfg.OTPLength = jc.OTPLength
	}
	if jc.CacheDSN != "" {
		cfg.CacheDSN = jc.CacheDSN
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	return nil
}
