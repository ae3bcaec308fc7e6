package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophsend/internal/flagx"
	"github.com/dmitrijs2005/gophsend/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// are timex.Duration so they can be written as "90s" or as nanoseconds.
type JsonConfig struct {
	ServerURL        string         `json:"server_url"`
	PollInterval     timex.Duration `json:"poll_interval"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	DownloadAttempts int            `json:"download_attempts"`
	DefaultExpiry    timex.Duration `json:"default_expiry"`
	DatabasePath     string         `json:"database_path"`
	DownloadDir      string         `json:"download_dir"`
	LogLevel         string         `json:"log_level"`

	S3 struct {
		Bucket    string `json:"bucket"`
		Region    string `json:"region"`
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Prefix    string `json:"prefix"`
	} `json:"s3"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Missing keys keep their current values. It panics when the
// file cannot be read or decoded.
func parseJson(cfg *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DefaultExpiry.Duration > 0 {
		cfg.DefaultExpiry = jc.DefaultExpiry.Duration
	}
	if jc.DownloadAttempts > 0 {
		cfg.DownloadAttempts = jc.DownloadAttempts
	}

	setString(&cfg.S3Bucket, jc.S3.Bucket)
	setString(&cfg.S3Region, jc.S3.Region)
	setString(&cfg.S3Endpoint, jc.S3.Endpoint)
	setString(&cfg.S3AccessKey, jc.S3.AccessKey)
	setString(&cfg.S3SecretKey, jc.S3.SecretKey)
	setString(&cfg.S3Prefix, jc.S3.Prefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
