// Package config loads runtime configuration for the portal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables, optionally seeded from a dotenv file given via
//     -e or -env-file (a ./.env file is picked up when present).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-u string   base URL of the portal API
//	-t int      request timeout (seconds)
//	-n int      OTP length (digits)
//	-d string   local cache DSN
//	-l string   log level (debug, info, warn, error)
//
// Environment
//
//	PORTAL_BASE_URL, PORTAL_REQUEST_TIMEOUT ("15s"), PORTAL_OTP_LENGTH,
//	PORTAL_CACHE_DSN, PORTAL_LOG_LEVEL, PORTAL_LOG_FORMAT
//
// # JSON schema
//
//	{
//	  "base_url": "https://portal.example",
//	  "request_timeout": "15s",
//	  "otp_length": 6,
//	  "cache_dsn": "portal.db",
//	  "log_level": "debug",
//	  "log_format": "json"
//	}
package config
