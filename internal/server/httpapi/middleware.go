package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/logging"
	"github.com/dmitrijs2005/lmsauth/internal/server/guard"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger tags the context with the chi request id and logs one line
// per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Info(ctx, "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// requireAuth admits the request only when the guard accepts its bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := s.guard.Check(r.Context(), guard.FromHTTP(r.Header.Get("Authorization")))
		if !d.Admitted() {
			s.writeError(w, r, d.Rejection)
			return
		}
		next.ServeHTTP(w, r.WithContext(guard.WithIdentity(r.Context(), d.Identity)))
	})
}

// bearerToken returns the token of an already admitted request.
func bearerToken(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), common.BearerPrefix))
}
