package config

import "time"

// Config holds runtime settings for the terminal client.
//
// Fields:
//   - NatsURLs: bus servers the identity service listens on.
//   - RedisURL: session cache read by `me`. Empty disables the cache.
//   - RequestTimeout / RequestRetries: per-attempt timeout and retry count of bus calls.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	NatsURLs            []string
	RedisURL            string
	RequestTimeout      time.Duration
	RequestRetries      int
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.NatsURLs = []string{"nats://127.0.0.1:4222"}
	c.RedisURL = "redis://localhost:6379/0"
	c.RequestTimeout = 5 * time.Second
	c.RequestRetries = 3
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
