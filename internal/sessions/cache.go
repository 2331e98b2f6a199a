// Package sessions implements the session cache: token -> user snapshot,
// with its own expiry. An entry lets a caller skip the user store; a miss
// only means the caller must resolve the user another way.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrCacheUnavailable = errors.New("session cache unavailable")
)

// Cache is the session cache contract shared by the service and the client.
type Cache interface {
	Put(ctx context.Context, token string, user *models.User, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.User, error)
	Delete(ctx context.Context, token string) error
}

// RedisCache stores entries as JSON strings under "auth-<token>".
type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Key returns the cache key for a token.
func Key(token string) string {
	return common.SessionKeyPrefix + token
}

// Put stores the public view of user. The password digest is never cached.
func (c *RedisCache) Put(ctx context.Context, token string, user *models.User, ttl time.Duration) error {
	if token == "" || user == nil {
		return errors.New("session: empty token or user")
	}
	data, err := json.Marshal(user.Public())
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, token string) (*models.User, error) {
	data, err := c.rdb.Get(ctx, Key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	user := &models.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("session: decode user: %w", err)
	}
	return user, nil
}

func (c *RedisCache) Delete(ctx context.Context, token string) error {
	if err := c.rdb.Del(ctx, Key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return rdb, nil
}
