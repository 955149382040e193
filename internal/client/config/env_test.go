package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv_Variables(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "http://env.example")
	t.Setenv("PORTAL_REQUEST_TIMEOUT", "5s")
	t.Setenv("PORTAL_OTP_LENGTH", "4")
	t.Setenv("PORTAL_CACHE_DSN", "env.db")

	cfg := &Config{}
	require.NoError(t, parseEnv(cfg, nil))

	assert.Equal(t, "http://env.example", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.OTPLength)
	assert.Equal(t, "env.db", cfg.CacheDSN)
}

func Test_parseEnv_BadValues(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv("PORTAL_REQUEST_TIMEOUT", "later")
		require.Error(t, parseEnv(&Config{}, nil))
	})
	t.Run("otp length", func(t *testing.T) {
		t.Setenv("PORTAL_OTP_LENGTH", "six")
		require.Error(t, parseEnv(&Config{}, nil))
	})
}

func Test_parseEnv_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_LOG_LEVEL=debug\n"), 0o600))

	// Registers cleanup so the variable loaded from the file does not leak.
	t.Setenv("PORTAL_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("PORTAL_LOG_LEVEL"))

	cfg := &Config{LogLevel: "info"}
	require.NoError(t, parseEnv(cfg, []string{"-env-file", path}))
	assert.Equal(t, "debug", cfg.LogLevel)
}

func Test_parseEnv_MissingDotenvFlagFile(t *testing.T) {
	err := parseEnv(&Config{}, []string{"-e", filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)
}
