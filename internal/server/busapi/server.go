// Package busapi is the message-bus edge of the identity service. It answers
// request/reply calls on NATS subjects using the envelopes from package bus.
package busapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/bus"
	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/errmap"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/nats-io/nats.go"
)

type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error)
}

type UserService interface {
	GetOwnData(ctx context.Context, id string) (*models.UserResult, error)
}

// handlerFunc serves the data part of one request envelope.
type handlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

type Server struct {
	nc      *nats.Conn
	queue   string
	timeout time.Duration
	auth    AuthService
	users   UserService
	guard   *guard.Guard
	logger  logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ready  chan struct{}
}

// NewServer binds the bus edge to an already connected nc. The connection
// belongs to the caller and is not closed by the server.
func NewServer(nc *nats.Conn, queue string, timeout time.Duration, l logging.Logger, as AuthService, us UserService, g *guard.Guard) *Server {
	if queue == "" {
		queue = bus.DefaultQueue
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		nc:      nc,
		queue:   queue,
		timeout: timeout,
		auth:    as,
		users:   us,
		guard:   g,
		logger:  l.With("module", "bus_server"),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once every subscription is registered with the server.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		bus.SubjectRegister:   s.register,
		bus.SubjectLogin:      s.login,
		bus.SubjectGetOwnData: s.getOwnData,
	}
}

// Run subscribes to all subjects in the queue group and serves until ctx is
// cancelled. It returns after in-flight requests have been answered.
func (s *Server) Run(ctx context.Context) error {
	var subs []*nats.Subscription
	unsubscribe := func() {
		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.logger.Warn(ctx, "unsubscribe failed", "subject", sub.Subject, "error", err)
			}
		}
	}

	for subject, h := range s.routes() {
		sub, err := s.nc.QueueSubscribe(subject, s.queue, s.dispatch(h))
		if err != nil {
			unsubscribe()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}
	if err := s.nc.Flush(); err != nil {
		unsubscribe()
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	s.logger.Info(ctx, "Starting bus server", "queue", s.queue, "subjects", len(subs))
	close(s.ready)

	<-ctx.Done()
	s.logger.Info(ctx, "Stopping bus server...")

	unsubscribe()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()

	return nil
}

// dispatch hands every message to its own goroutine so one slow call does
// not hold up the subscription.
func (s *Server) dispatch(h handlerFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			s.handle(msg, h)
		}()
	}
}

func (s *Server) handle(msg *nats.Msg, h handlerFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var resp *bus.Response

	var req bus.Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		resp = bus.Fail(fmt.Errorf("%w: %v", common.ErrMalformedInput, err))
	} else {
		ctx = logging.WithRequestID(ctx, req.ID)
		resp = s.call(ctx, msg.Subject, h, req.Data)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error(ctx, "encode response failed", "subject", msg.Subject, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Error(ctx, "respond failed", "subject", msg.Subject, "error", err)
	}
}

func (s *Server) call(ctx context.Context, subject string, h handlerFunc, data json.RawMessage) *bus.Response {
	result, err := h(ctx, data)
	if err != nil {
		if errmap.FromError(err).Code >= http.StatusInternalServerError {
			s.logger.Error(ctx, "request failed", "subject", subject, "error", err)
		}
		return bus.Fail(err)
	}

	resp, err := bus.OK(result)
	if err != nil {
		s.logger.Error(ctx, "encode result failed", "subject", subject, "error", err)
		return bus.Fail(err)
	}
	return resp
}
