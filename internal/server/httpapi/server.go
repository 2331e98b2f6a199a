// Package httpapi is the HTTP edge of the identity service. Handlers decode
// and validate input, call the services and render results or errors; the
// guard decides access to protected routes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AuthService is the part of the auth use cases the HTTP edge calls.
type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type UserService interface {
	GetOwnData(ctx context.Context, id string) (*models.UserResult, error)
}

// Options tune the edge. Zero values are replaced by defaults. SessionTTL
// is the cookie lifetime and matches the session cache TTL.
type Options struct {
	CookieName     string
	AllowedOrigins []string
	ShutdownGrace  time.Duration
	SessionTTL     time.Duration
	MaxBodyBytes   int64
}

const defaultMaxBodyBytes = 1 << 20

type Server struct {
	address string
	auth    AuthService
	users   UserService
	guard   *guard.Guard
	logger  logging.Logger
	opts    Options
}

func NewServer(a string, l logging.Logger, as AuthService, us UserService, g *guard.Guard, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "auth_token"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 5 * time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = common.SessionLifetime
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		address: a,
		auth:    as,
		users:   us,
		guard:   g,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !allowsAny(s.opts.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/ping", s.ping)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.With(s.requireAuth).Post("/logout", s.logout)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/me", s.me)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
