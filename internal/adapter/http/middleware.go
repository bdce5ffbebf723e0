package http

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// Operational endpoints are checked over plain HTTP inside the cluster and are
// never redirected.
var opsPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return s.requestLog(s.forceHTTPS(next))
}

// requestLog tags each request with an id and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		m := httpsnoop.CaptureMetrics(next, w, r)

		if s.deps.Metrics != nil {
			s.deps.Metrics.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(m.Code)).Inc()
		}
		if opsPaths[r.URL.Path] {
			return
		}
		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// forceHTTPS redirects plain-HTTP traffic behind a TLS-terminating proxy.
func (s *Server) forceHTTPS(next http.Handler) http.Handler {
	if !s.opts.Production {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" || opsPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		s.logger.Info("http access attempted, redirecting to https", "path", r.URL.Path)
		http.Redirect(w, r, "https://"+r.Host+r.URL.Path, http.StatusFound)
	})
}
