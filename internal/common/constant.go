package common

import "time"

// SessionKeyPrefix prefixes the token when it is used as a session cache key.
const SessionKeyPrefix = "auth-"

// SessionLifetime is how long both the session entry and the auth cookie live.
const SessionLifetime = 7 * 24 * time.Hour

// BearerPrefix is the scheme expected in the Authorization header.
const BearerPrefix = "Bearer "
