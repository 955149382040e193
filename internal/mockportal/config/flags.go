package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/aldente/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-o string   passcode accepted for every challenge
//	-u string   demo account username ("" disables seeding)
//	-p string   demo account password
//	-s int      shutdown timeout, seconds
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-o", "-u", "-p", "-s", "-l"})

	fs := flag.NewFlagSet("mockportal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddr, "a", cfg.EndpointAddr, "address and port to run server")
	fs.StringVar(&cfg.Code, "o", cfg.Code, "passcode for every challenge")
	fs.StringVar(&cfg.SeedUsername, "u", cfg.SeedUsername, "demo account username")
	fs.StringVar(&cfg.SeedPassword, "p", cfg.SeedPassword, "demo account password")
	shutdown := fs.Int("s", int(cfg.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.ShutdownTimeout = time.Duration(*shutdown) * time.Second
	return nil
}
