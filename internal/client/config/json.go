package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lmsauth/internal/flagx"
	"github.com/dmitrijs2005/lmsauth/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	NatsURLs            []string       `json:"nats_urls"`
	RedisURL            *string        `json:"redis_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	RequestRetries      *int           `json:"request_retries"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays cfg with values loaded from the file given by -c or
// -config. Absent keys keep their value; "redis_url": "" disables the cache.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if len(jc.NatsURLs) > 0 {
		cfg.NatsURLs = jc.NatsURLs
	}
	if jc.RedisURL != nil {
		cfg.RedisURL = *jc.RedisURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RequestRetries != nil {
		cfg.RequestRetries = *jc.RequestRetries
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}
