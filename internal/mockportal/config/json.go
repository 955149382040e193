package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/aldente/internal/flagx"
	"github.com/dmitrijs2005/aldente/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Empty fields keep the
// current value.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	Code            string         `json:"code"`
	SeedUsername    string         `json:"seed_username"`
	SeedPassword    string         `json:"seed_password"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	LogLevel        string         `json:"log_level"`
	LogFormat       string         `json:"log_format"`
}

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

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.Code != "" {
		cfg.Code = jc.Code
	}
	if jc.SeedUsername != "" {
		cfg.SeedUsername = jc.SeedUsername
	}
	if jc.SeedPassword != "" {
		cfg.SeedPassword = jc.SeedPassword
	}
	if jc.ShutdownTimeout.Duration > 0 {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
	return nil
}
