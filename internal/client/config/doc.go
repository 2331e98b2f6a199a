// Package config loads runtime configuration for the lms terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables NATS_URLS and REDIS_URL (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-n string   comma separated NATS server URLs
//	-r string   session cache Redis URL ("" disables the cache)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations can be strings like "3s" or integer nanoseconds:
//
//	{
//	  "nats_urls": ["nats://127.0.0.1:4222"],
//	  "redis_url": "redis://localhost:6379/0",
//	  "request_timeout": "5s",
//	  "request_retries": 3,
//	  "online_check_interval": "3s"
//	}
package config
