package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/lmsauth/internal/flagx"
)

type envConfig struct {
	NatsURLs string `env:"NATS_URLS"`
	RedisURL string `env:"REDIS_URL"`
}

// parseEnv overlays NATS_URLS and REDIS_URL when they are set and non-empty.
// The cache is disabled with -r "" or "redis_url": "" in the JSON file.
func parseEnv(cfg *Config) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	if urls := flagx.SplitList(e.NatsURLs); len(urls) > 0 {
		cfg.NatsURLs = urls
	}
	if e.RedisURL != "" {
		cfg.RedisURL = e.RedisURL
	}
}
