// Package server assembles the identity service: storage, session cache,
// token and password primitives, the HTTP edge and the optional bus edge.
// It handles graceful shutdown and closes resources in reverse order.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/server/auth"
	"github.com/dmitrijs2005/lmsauth/internal/server/busapi"
	"github.com/dmitrijs2005/lmsauth/internal/server/config"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/dmitrijs2005/lmsauth/internal/server/httpapi"
	"github.com/dmitrijs2005/lmsauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lmsauth/internal/server/services"
	"github.com/dmitrijs2005/lmsauth/internal/sessions"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger *logging.ZapLogger

	db  *sql.DB
	rdb *redis.Client
	nc  *nats.Conn

	httpServer *httpapi.Server
	busServer  *busapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return err
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	rdb, err := sessions.Connect(ctx, c.RedisURL)
	if err != nil {
		return err
	}
	app.rdb = rdb

	tokens, err := auth.NewTokenService(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		return err
	}
	hasher, err := auth.NewPasswordHasher(c.SaltRounds)
	if err != nil {
		return err
	}

	as := services.NewAuthService(db, rm, hasher, tokens, sessions.NewRedisCache(rdb), c.SessionTTL, app.logger)
	us := services.NewUserService(db, rm)
	g := guard.New(tokens, app.logger)

	app.httpServer = httpapi.NewServer(c.HTTPAddr, app.logger, as, us, g, httpapi.Options{
		CookieName:     c.AuthCookieName,
		AllowedOrigins: c.CORSAllowedOrigins,
		SessionTTL:     c.SessionTTL,
	})

	if len(c.NatsURLs) == 0 {
		app.logger.Info(ctx, "NATS_URLS not set, bus edge disabled")
		return nil
	}

	nc, err := nats.Connect(strings.Join(c.NatsURLs, ","),
		nats.Name("lms-auth"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("nats connect error: %w", err)
	}
	app.nc = nc
	app.busServer = busapi.NewServer(nc, c.NatsQueue, c.BusRequestTimeout, app.logger, as, us, g)

	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server failed", "error", err)
			cancelFunc()
		}
	}()

	if app.busServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.busServer.Run(ctx); err != nil {
				app.logger.Error(ctx, "bus server failed", "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(ctx, "App stopped")
}

// close releases connections in reverse order of creation.
func (app *App) close(ctx context.Context) {
	if app.nc != nil {
		if err := app.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			app.logger.Warn(ctx, "nats drain failed", "error", err)
		}
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close failed", "error", err)
		}
	}
	_ = app.logger.Sync()
}
