package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/repositories/repomanager"
)

// UserService serves lookups of the caller's own record.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// GetOwnData returns the public view of the user with the given id.
// common.ErrorNotFound means the identity no longer resolves.
func (s *UserService) GetOwnData(ctx context.Context, id string) (*models.UserResult, error) {
	user, err := s.repomanager.Users(s.db).FindByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserResult{Message: models.MessageOwnData, User: user.Public()}, nil
}
