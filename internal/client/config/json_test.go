package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"base_url":        "http://www.example:9000",
		"request_timeout": "30s",
		"cache_dsn":       ":memory:",
		"log_format":      "json",
	})

	t.Run("loads from flag", func(t *testing.T) {
		cfg := &Config{OTPLength: 6}
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "http://www.example:9000", cfg.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
		assert.Equal(t, ":memory:", cfg.CacheDSN)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 6, cfg.OTPLength, "unset fields keep their value")
	})

	t.Run("no flag → no changes", func(t *testing.T) {
		cfg := &Config{BaseURL: "defaults"}
		require.NoError(t, parseJson(cfg, []string{"-u", "x"}))
		assert.Equal(t, "defaults", cfg.BaseURL)
	})

	t.Run("missing file → error", func(t *testing.T) {
		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", bad}))
	})
}
