package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/flagx"
)

// ValueFlags lists the flags of the CLI that take a value, so the command
// dispatcher can skip them when looking for the subcommand.
var ValueFlags = []string{"-a", "-s", "-t", "-c", "-config"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   base URL of the API
//	-s string   session database file
//	-t int      request timeout in seconds
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the aquatrack API")
	fs.StringVar(&cfg.SessionFile, "s", cfg.SessionFile, "session database file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
