package http

import (
	"net/http"
	"time"

	"github.com/staylio/villa-onboard/internal/logger"
)

// withLogging emits one access-log line per request with the final status
// and response size. It relies on withTraceID running first so the line
// carries the trace id.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		lw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(lw, r)

		logger.FromRequest(r).Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", lw.status).
			Int("size", lw.size).
			Dur("duration", time.Since(started)).
			Send()
	})
}
