// Package config loads runtime configuration for the GophSend CLI.
//
// Sources and precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the share service
//	-p int      owned files poll interval (seconds)
//	-t int      request timeout (seconds, 0 for none)
//	-d string   local database path
//	-o string   download directory
//	-l string   log level
//
// # JSON schema
//
// Durations may be strings such as "2m" or integer nanoseconds:
//
//	{
//	  "server_url": "https://send.example",
//	  "poll_interval": "2m",
//	  "request_timeout": "30s",
//	  "download_attempts": 2,
//	  "default_expiry": "24h",
//	  "database_path": "gophsend.db",
//	  "download_dir": "downloads",
//	  "log_level": "info",
//	  "s3": {"bucket": "b", "region": "us-east-1", "endpoint": "http://minio:9000",
//	         "access_key": "...", "secret_key": "...", "prefix": "incoming/"}
//	}
//
// The S3 sink is configured through JSON only so credentials stay out of
// the process arguments.
package config
