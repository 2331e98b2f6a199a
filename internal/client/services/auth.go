// Package services contains application services for the terminal client.
// This file defines the authentication service: register, login, own-data
// lookup through the session cache, logout and a liveness probe.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lmsauth/internal/client/client"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/sessions"
)

// ErrNoSession is returned by Me and Logout when no token is held.
var ErrNoSession = errors.New("not logged in")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register / Login: call the identity service and return its result,
//     including the session token.
//   - Me: resolve the current user, from the session cache when it holds the
//     token and from the identity service otherwise.
//   - Logout: drop the session entry from the cache.
//   - Ping: check bus liveness.
//   - Close: release underlying client resources.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, identifier string, password []byte) (*models.AuthResult, error)
	Me(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and an
// optional session cache. A nil cache sends every Me to the service.
type authService struct {
	client client.Client
	cache  sessions.Cache
	logger logging.Logger
}

// NewAuthService constructs an AuthService bound to the given client and cache.
func NewAuthService(c client.Client, cache sessions.Cache, l logging.Logger) AuthService {
	return &authService{client: c, cache: cache, logger: l.With("module", "auth_service")}
}

func (a *authService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	res, err := a.client.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}
	return res, nil
}

func (a *authService) Login(ctx context.Context, identifier string, password []byte) (*models.AuthResult, error) {
	in := models.LoginInput{Identifier: strings.TrimSpace(identifier), Password: string(password)}
	res, err := a.client.Login(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return res, nil
}

// Me returns the cached snapshot for token when present. A miss or an
// unreachable cache falls back to user.getOwnData.
func (a *authService) Me(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	if a.cache != nil {
		user, err := a.cache.Get(ctx, token)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			a.logger.Warn(ctx, "session cache read failed", "error", err)
		}
	}

	res, err := a.client.GetOwnData(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get own data error: %w", err)
	}
	return res.User, nil
}

func (a *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	if a.cache == nil {
		return nil
	}
	if err := a.cache.Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
