package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the share service
//	-p int      owned files poll interval in seconds
//	-t int      request timeout in seconds, 0 for none
//	-d string   path of the local database
//	-o string   directory for downloaded files
//	-l string   log level
//
// Only these flags are parsed; the rest of os.Args is left to other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-t", "-d", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the share service")
	poll := fs.Int("p", int(cfg.PollInterval.Seconds()), "owned files poll interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds, 0 for none)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "directory for downloaded files")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*poll) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
