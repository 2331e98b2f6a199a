package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/dmitrijs2005/lmsauth/internal/validation"
)

// decode reads a JSON body of at most MaxBodyBytes into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	return validation.Decode(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes), v)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.auth.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := s.decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.auth.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, res.Token)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.logger.Warn(r.Context(), "session delete failed", "error", err)
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": models.MessageLoggedOut})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := guard.IdentityFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrUnauthenticated)
		return
	}

	res, err := s.users.GetOwnData(r.Context(), id.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
