package client

import "errors"

var (
	// ErrUnavailable means no service instance answered in time.
	ErrUnavailable = errors.New("server unavailable")
)
