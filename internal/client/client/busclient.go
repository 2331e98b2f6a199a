package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/bus"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultRetries        = 3
	defaultRetryDelay     = 200 * time.Millisecond
)

// BusClient talks to the identity service over NATS request/reply.
type BusClient struct {
	nc         *nats.Conn
	timeout    time.Duration
	retries    uint64
	retryDelay time.Duration
	logger     logging.Logger
}

// Connect dials the given NATS servers.
func Connect(urls []string, opts ...nats.Option) (*nats.Conn, error) {
	if len(urls) == 0 {
		return nil, errors.New("no NATS servers configured")
	}
	nc, err := nats.Connect(strings.Join(urls, ","), append([]nats.Option{nats.Name("lms-cli")}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nc, nil
}

// NewBusClient takes ownership of nc; Close closes it.
func NewBusClient(nc *nats.Conn, timeout time.Duration, retries int, l logging.Logger) *BusClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &BusClient{
		nc:         nc,
		timeout:    timeout,
		retries:    uint64(retries),
		retryDelay: defaultRetryDelay,
		logger:     l.With("module", "bus_client"),
	}
}

func (c *BusClient) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.Request(ctx, bus.SubjectRegister, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BusClient) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.Request(ctx, bus.SubjectLogin, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BusClient) GetOwnData(ctx context.Context, token string) (*models.UserResult, error) {
	var out models.UserResult
	if err := c.Request(ctx, bus.SubjectGetOwnData, models.TokenInput{Authorization: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Request sends data on subject and decodes the result into out.
// Each attempt has its own timeout. Only "no responders" is retried.
func (c *BusClient) Request(ctx context.Context, subject string, data any, out any) error {
	req, err := bus.NewRequest(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	var reply *nats.Msg
	backoff := retry.WithMaxRetries(c.retries, retry.NewConstant(c.retryDelay))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		msg, err := c.nc.RequestWithContext(attemptCtx, subject, payload)
		if err != nil {
			if errors.Is(err, nats.ErrNoResponders) {
				c.logger.Warn(ctx, "no responders, retrying", "subject", subject, "request_id", req.ID)
				return retry.RetryableError(err)
			}
			return err
		}
		reply = msg
		return nil
	})
	if err != nil {
		if isUnavailable(err) {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, subject, err)
		}
		return err
	}

	var resp bus.Response
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if resp.Err != nil {
		return resp.Err.AsError()
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Response, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Ping round-trips to the NATS server.
func (c *BusClient) Ping(ctx context.Context) error {
	if !c.nc.IsConnected() {
		return ErrUnavailable
	}
	if err := c.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *BusClient) Close() error {
	c.nc.Close()
	return nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, nats.ErrConnectionClosed)
}
