// Package guard decides whether an inbound call may proceed. The edge that
// received the call classifies it by transport and hands over the raw
// credential; the guard verifies it and returns either the caller's
// identity or a rejection. It never writes transport responses.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/auth"
)

// Transport is the kind of edge a call arrived on.
type Transport int

const (
	TransportHTTP Transport = iota + 1
	TransportRPC
)

func (t Transport) String() string {
	switch t {
	case TransportHTTP:
		return "http"
	case TransportRPC:
		return "rpc"
	default:
		return fmt.Sprintf("transport(%d)", int(t))
	}
}

// Rejection messages shown to callers.
const (
	MsgHTTPMissingToken = "No token provided"
	MsgHTTPInvalidToken = "Invalid token"
	MsgRPCMissingToken  = "please provide token"
	MsgRPCInvalidToken  = "session expired! Please sign In"
)

// Credential is what an edge extracted from the inbound call.
type Credential struct {
	Transport Transport
	// Header is the raw Authorization header (HTTP only).
	Header string
	// Authorization is the token field of the call payload (RPC only).
	Authorization string
}

func FromHTTP(header string) Credential {
	return Credential{Transport: TransportHTTP, Header: header}
}

func FromRPC(authorization string) Credential {
	return Credential{Transport: TransportRPC, Authorization: authorization}
}

// Decision is the outcome of Check: exactly one of Identity and Rejection
// is set.
type Decision struct {
	Identity  *models.AuthContext
	Rejection *common.UnauthenticatedError
}

func (d Decision) Admitted() bool { return d.Identity != nil }

// Verifier checks a token and returns its claims.
type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Guard struct {
	tokens Verifier
	logger logging.Logger
}

func New(tokens Verifier, logger logging.Logger) *Guard {
	return &Guard{tokens: tokens, logger: logger.With("module", "guard")}
}

// Check runs the credential through the path of its transport. A transport
// other than HTTP or RPC is a wiring bug and panics.
func (g *Guard) Check(ctx context.Context, c Credential) Decision {
	switch c.Transport {
	case TransportHTTP:
		return g.checkHTTP(ctx, c.Header)
	case TransportRPC:
		return g.checkRPC(ctx, c.Authorization)
	default:
		panic(fmt.Sprintf("guard: unsupported %s", c.Transport))
	}
}

func (g *Guard) checkHTTP(ctx context.Context, header string) Decision {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return reject(MsgHTTPMissingToken, common.ErrUnauthenticated)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" {
		return reject(MsgHTTPMissingToken, common.ErrUnauthenticated)
	}
	return g.verify(ctx, TransportHTTP, token, MsgHTTPInvalidToken)
}

func (g *Guard) checkRPC(ctx context.Context, authorization string) Decision {
	token := strings.TrimSpace(authorization)
	if token == "" {
		return reject(MsgRPCMissingToken, common.ErrUnauthenticated)
	}
	return g.verify(ctx, TransportRPC, token, MsgRPCInvalidToken)
}

func (g *Guard) verify(ctx context.Context, t Transport, token, msg string) Decision {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.logger.Warn(ctx, "token rejected", "transport", t.String(), "error", err)
		return reject(msg, err)
	}
	id := claims.Identity()
	return Decision{Identity: &id}
}

func reject(msg string, cause error) Decision {
	return Decision{Rejection: &common.UnauthenticatedError{Message: msg, Cause: cause}}
}

type identityKey struct{}

// WithIdentity attaches an admitted identity to ctx.
func WithIdentity(ctx context.Context, id *models.AuthContext) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by WithIdentity.
func IdentityFromContext(ctx context.Context) (*models.AuthContext, bool) {
	id, ok := ctx.Value(identityKey{}).(*models.AuthContext)
	return id, ok && id != nil
}
