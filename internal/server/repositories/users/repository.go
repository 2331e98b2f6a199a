// Package users is the credential store: durable user records with unique
// username, email and phone.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/models"
)

type Repository interface {
	// Create inserts user and fills its id and timestamps. A uniqueness
	// violation yields *common.ConflictError naming the offending field.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindByIdentifier resolves an id, email, username or phone.
	// It returns common.ErrorNotFound when nothing matches.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
