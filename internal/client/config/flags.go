package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/aldente/internal/flagx"
)

// parseFlags populates Config fields from the flags it owns; any other
// arguments (e.g. -c, -e) are filtered out before parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-u", "-t", "-n", "-d", "-l"})

	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "base URL of the portal API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.OTPLength, "n", cfg.OTPLength, "one-time passcode length")
	fs.StringVar(&cfg.CacheDSN, "d", cfg.CacheDSN, "local cache DSN")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
