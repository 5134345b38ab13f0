package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// sessionHeader mirrors the handlers package constant; importing handlers
// here would cycle through the identity context helpers.
const sessionHeader = "X-Relay-Session"

// Logger returns a request logging middleware using zerolog. Requests
// carrying a session handle log it, so one session's routing calls can be
// correlated across the stream. The events endpoint only returns when the
// session ends, so its completion line is really a disconnect record and
// its latency the session duration.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				ev := logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr)
				if session := r.Header.Get(sessionHeader); session != "" {
					ev = ev.Str("session", session)
				}
				if r.URL.Path == "/events" {
					ev.Msg("event stream closed")
					return
				}
				ev.Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
