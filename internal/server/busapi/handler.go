package busapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/dmitrijs2005/lmsauth/internal/validation"
)

func (s *Server) register(ctx context.Context, data json.RawMessage) (any, error) {
	var in models.RegisterInput
	if err := validation.Decode(bytes.NewReader(data), &in); err != nil {
		return nil, err
	}
	return s.auth.Register(ctx, in)
}

func (s *Server) login(ctx context.Context, data json.RawMessage) (any, error) {
	var in models.LoginInput
	if err := validation.Decode(bytes.NewReader(data), &in); err != nil {
		return nil, err
	}
	return s.auth.Login(ctx, in)
}

// getOwnData is guarded: the token travels in the payload because the bus
// has no headers.
func (s *Server) getOwnData(ctx context.Context, data json.RawMessage) (any, error) {
	var in models.TokenInput
	if len(data) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
		}
	}

	d := s.guard.Check(ctx, guard.FromRPC(in.Authorization))
	if !d.Admitted() {
		return nil, d.Rejection
	}
	ctx = guard.WithIdentity(ctx, d.Identity)

	id, _ := guard.IdentityFromContext(ctx)
	return s.users.GetOwnData(ctx, id.ID)
}
