package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/client/client"
	"github.com/dmitrijs2005/lmsauth/internal/client/config"
	"github.com/dmitrijs2005/lmsauth/internal/client/services"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/sessions"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

type App struct {
	config      *config.Config
	authService services.AuthService
	logger      logging.Logger
	rdb         *redis.Client

	token string
	user  *models.User

	mu   sync.RWMutex
	mode Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp connects to the bus and, when RedisURL is set, to the session
// cache. An unreachable bus is not an error: the client starts offline and
// the connection keeps retrying in the background. An unreachable cache only
// disables the cached `me` path.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	nc, err := client.Connect(c.NatsURLs,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	var (
		cache sessions.Cache
		rdb   *redis.Client
	)
	if c.RedisURL != "" {
		rdb, err = sessions.Connect(ctx, c.RedisURL)
		if err != nil {
			l.Warn(ctx, "session cache disabled", "error", err)
		} else {
			cache = sessions.NewRedisCache(rdb)
		}
	}

	bc := client.NewBusClient(nc, c.RequestTimeout, c.RequestRetries, l)
	as := services.NewAuthService(bc, cache, l)

	return &App{
		config:      c,
		authService: as,
		logger:      l,
		rdb:         rdb,
		mode:        ModeOffline,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close(ctx)

	fmt.Fprintln(a.out, "Welcome to LMS CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close(ctx context.Context) {
	if err := a.authService.Close(ctx); err != nil {
		a.logger.Warn(ctx, "bus close failed", "error", err)
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn(ctx, "session cache close failed", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	s := string(a.Mode())
	if a.user != nil {
		s = a.user.Username + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.authService.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the bus every interval and switches between
// online and offline mode until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
