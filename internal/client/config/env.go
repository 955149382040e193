package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/aldente/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "PORTAL_"

// parseEnv overlays cfg with PORTAL_* environment variables. A dotenv file
// named by -e/-env-file is loaded first and must exist; otherwise ./.env is
// loaded if present. godotenv never overrides variables already set.
func parseEnv(cfg *Config, args []string) error {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if v, ok := lookup("BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookup("REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := lookup("OTP_LENGTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sOTP_LENGTH: %w", envPrefix, err)
		}
		cfg.OTPLength = n
	}
	if v, ok := lookup("CACHE_DSN"); ok {
		cfg.CacheDSN = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
