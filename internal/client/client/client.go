package client

import (
	"context"

	"github.com/dmitrijs2005/lmsauth/internal/models"
)

// Client is the identity service as seen from the terminal client.
type Client interface {
	Close() error
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error)
	GetOwnData(ctx context.Context, token string) (*models.UserResult, error)
	Ping(ctx context.Context) error
}
