// Package services contains server-side business logic. This file implements
// AuthService, which registers users, checks credentials and opens or closes
// sessions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lmsauth/internal/sessions"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(id models.AuthContext) (string, error)
}

// AuthService provides the authentication use cases:
// - Register: create the user and open a session
// - Login: verify credentials and open a session
// - Logout: forget the session entry
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	sessions    sessions.Cache
	sessionTTL  time.Duration
	logger      logging.Logger
	now         func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	hasher PasswordHasher,
	tokens TokenIssuer,
	cache sessions.Cache,
	sessionTTL time.Duration,
	logger logging.Logger,
) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		sessions:    cache,
		sessionTTL:  sessionTTL,
		logger:      logger.With("module", "auth_service"),
		now:         time.Now,
	}
}

// Register stores a new user and returns it with a fresh token. Store errors,
// including *common.ConflictError, are returned unchanged.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	prefs := models.DefaultPreferences()
	if in.Preferences != nil {
		prefs = *in.Preferences
	}

	candidate := &models.User{
		Username:    models.NormalizeUsername(in.Username),
		Email:       in.Email,
		Phone:       in.Phone,
		Password:    digest,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Profile:     in.Profile,
		Preferences: prefs,
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, candidate)
	if err != nil {
		return nil, err
	}

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &models.AuthResult{Message: models.MessageRegistered, User: user.Public(), Token: token}, nil
}

// Login resolves the identifier and checks the password. An unknown
// identifier and a wrong password both yield common.ErrWrongCredentials.
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByIdentifier(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the timing close to a real mismatch
			s.hasher.Compare(in.Password, s.dummy())
			return nil, common.ErrWrongCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Compare(in.Password, user.Password) {
		return nil, common.ErrWrongCredentials
	}

	at := s.now().UTC()
	if err := repo.TouchLastLogin(ctx, user.ID, at); err != nil {
		// removed after the lookup
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrWrongCredentials
		}
		return nil, fmt.Errorf("error updating last login: %w", err)
	}
	user.LastLogin = &at
	user.UpdatedAt = at

	token, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &models.AuthResult{Message: models.MessageLoggedIn, User: user.Public(), Token: token}, nil
}

// Logout drops the session entry for token. The token itself stays valid
// until it expires.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// openSession issues a token for user and caches the user under it. The
// cache is not authoritative, so a failed write is only logged.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (string, error) {
	token, err := s.tokens.Issue(models.AuthContext{ID: user.ID, Username: user.Username})
	if err != nil {
		return "", fmt.Errorf("error issuing token: %w", err)
	}

	if err := s.sessions.Put(ctx, token, user, s.sessionTTL); err != nil {
		s.logger.Warn(ctx, "session cache write failed", "user_id", user.ID, "error", err)
	}

	return token, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyDigest
}
