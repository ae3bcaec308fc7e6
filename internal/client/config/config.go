package config

import "time"

// Config holds runtime settings for the GophSend CLI.
//
// Durations are time.Duration values. RequestTimeout of zero disables the
// transport timeout.
type Config struct {
	ServerURL        string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	DownloadAttempts int
	DefaultExpiry    time.Duration
	DatabasePath     string
	DownloadDir      string
	LogLevel         string

	// S3Bucket switches downloads from DownloadDir to an S3-compatible
	// bucket when set.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:1443"
	c.PollInterval = 2 * time.Minute
	c.RequestTimeout = 30 * time.Second
	c.DownloadAttempts = 2
	c.DefaultExpiry = 24 * time.Hour
	c.DatabasePath = "gophsend.db"
	c.DownloadDir = "downloads"
	c.LogLevel = "info"
}

// UseS3 reports whether downloads go to a bucket.
func (c *Config) UseS3() bool { return c.S3Bucket != "" }

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
