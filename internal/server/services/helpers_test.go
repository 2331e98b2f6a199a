package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/dbx"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/auth"
	"github.com/dmitrijs2005/lmsauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/lmsauth/internal/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

// memUsers is an in-memory users.Repository enforcing the same uniqueness
// rules as the users table.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	seq     int
	findErr  error
	touchErr error
	touchN   int
	touchAt time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.byID {
		switch {
		case ex.Username == u.Username:
			return nil, &common.ConflictError{Field: "username", Value: u.Username}
		case ex.Email == u.Email:
			return nil, &common.ConflictError{Field: "email", Value: u.Email}
		case ex.Phone == u.Phone:
			return nil, &common.ConflictError{Field: "phone", Value: u.Phone}
		}
	}
	m.seq++
	c := *u
	c.ID = fmt.Sprintf("0190a4c2-0000-7000-8000-%012d", m.seq)
	c.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.UpdatedAt = c.CreatedAt
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memUsers) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if u.ID == identifier || u.Email == identifier || u.Phone == identifier || u.Username == strings.ToLower(identifier) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchErr != nil {
		return m.touchErr
	}
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	m.touchN++
	m.touchAt = at
	u.LastLogin = &at
	return nil
}

type fakeManager struct {
	repo users.Repository
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeManager) Users(dbx.DBTX) users.Repository { return f.repo }

type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Put(context.Context, string, *models.User, time.Duration) error {
	return errCacheDown
}
func (failingCache) Get(context.Context, string) (*models.User, error) { return nil, errCacheDown }
func (failingCache) Delete(context.Context, string) error { return errCacheDown }

// --- helpers ---

type fixture struct {
	repo   *memUsers
	tokens *auth.TokenService
	cache  *sessions.RedisCache
	mr     *miniredis.Miniredis
	logs   *observer.ObservedLogs
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	logger := logging.NewZapLogger(zap.New(core))

	repo := newMemUsers()
	rm := &fakeManager{repo: repo}
	cache := sessions.NewRedisCache(rdb)

	return &fixture{
		repo:   repo,
		tokens: tokens,
		cache:  cache,
		mr:     mr,
		logs:   logs,
		auth:   NewAuthService(nil, rm, hasher, tokens, cache, common.SessionLifetime, logger),
		users:  NewUserService(nil, rm),
	}
}

func johnDoe() models.RegisterInput {
	return models.RegisterInput{
		Username:  "johndoe",
		Email:     "john@example.com",
		Phone:     "+201234567890",
		Password:  "password123",
		FirstName: "John",
		LastName:  "Doe",
	}
}
