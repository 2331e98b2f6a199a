package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/lmsauth/internal/flagx"
	"github.com/dmitrijs2005/lmsauth/internal/timex"
	"github.com/joho/godotenv"
)

// envConfig lists the variables the service reads. Unset variables leave
// the corresponding Config field alone.
type envConfig struct {
	Port                  string         `env:"PORT"`
	DatabaseDSN           string         `env:"DATABASE_URL"`
	RedisURL              string         `env:"REDIS_URL"`
	NatsURLs              []string       `env:"NATS_URLS" envSeparator:","`
	SecretKey             string         `env:"JWT_SECRET"`
	TokenValidityDuration timex.Duration `env:"JWT_EXPIRES_IN"`
	SessionTTL            timex.Duration `env:"SESSION_TTL"`
	SaltRounds            int            `env:"SALT_ROUNDS"`
	AuthCookieName        string         `env:"AUTH_COOKIE_NAME"`
	CORSAllowedOrigins    []string       `env:"CORS_ORIGINS" envSeparator:","`
}

// dotenvFile is loaded before reading the environment when present.
// Variables already set in the process win.
var dotenvFile = ".env"

// parseEnv overlays environment variables onto config. A malformed value
// panics, like a malformed config file.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	var e envConfig
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	if e.Port != "" {
		config.HTTPAddr = ":" + e.Port
	}
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.RedisURL, e.RedisURL)
	setString(&config.SecretKey, e.SecretKey)
	setString(&config.AuthCookieName, e.AuthCookieName)

	if urls := trimList(e.NatsURLs); len(urls) > 0 {
		config.NatsURLs = urls
	}
	if origins := trimList(e.CORSAllowedOrigins); len(origins) > 0 {
		config.CORSAllowedOrigins = origins
	}
	if e.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = e.TokenValidityDuration.Duration
	}
	if e.SessionTTL.Duration > 0 {
		config.SessionTTL = e.SessionTTL.Duration
	}
	if e.SaltRounds > 0 {
		config.SaltRounds = e.SaltRounds
	}
}

func trimList(items []string) []string {
	return flagx.SplitList(strings.Join(items, ","))
}
