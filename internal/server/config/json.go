package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lmsauth/internal/flagx"
	"github.com/dmitrijs2005/lmsauth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// strings such as "15m" or "3d" as well as integer nanoseconds.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	RedisURL              string         `json:"redis_url"`
	NatsURLs              []string       `json:"nats_urls"`
	NatsQueue             string         `json:"nats_queue"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	SessionTTL            timex.Duration `json:"session_ttl"`
	SaltRounds            int            `json:"salt_rounds"`
	AuthCookieName        string         `json:"auth_cookie_name"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
	BusRequestTimeout     timex.Duration `json:"bus_request_timeout"`
}

// parseJson overlays the file named by -c / -config onto config. Keys that
// are absent keep their current value. An unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.NatsQueue, c.NatsQueue)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AuthCookieName, c.AuthCookieName)

	if len(c.NatsURLs) > 0 {
		config.NatsURLs = c.NatsURLs
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.BusRequestTimeout.Duration > 0 {
		config.BusRequestTimeout = c.BusRequestTimeout.Duration
	}
	if c.SaltRounds > 0 {
		config.SaltRounds = c.SaltRounds
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
