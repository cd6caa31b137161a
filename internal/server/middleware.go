package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/monitoring"
	"github.com/sgr-desktop/sgr-proxy/internal/upstream"
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with a uuid, honoring one the client already
// sent, and echoes it back on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// instrument logs each request and feeds all three telemetry sinks. Sinks
// are best-effort and must never slow the request down; the SQLite insert
// swallows its own errors and the JSONL tracker drops events when disabled.
func instrument(obs *Observers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("elapsed", elapsed).
				Str("request_id", w.Header().Get(requestIDHeader)).
				Msg("request")

			if obs == nil {
				return
			}
			event := &monitoring.RequestEvent{
				Timestamp:        start,
				RequestID:        w.Header().Get(requestIDHeader),
				Method:           r.Method,
				Path:             r.URL.Path,
				UpstreamEndpoint: upstream.MapEndpoint(r.URL.Path),
				Status:           status,
				DurationMS:       elapsed.Milliseconds(),
			}
			if obs.Metrics != nil {
				obs.Metrics.ObserveRequest(r.Method, route, status, elapsed)
			}
			if obs.Tracker != nil {
				obs.Tracker.RecordRequest(event)
			}
			if obs.Events != nil {
				obs.Events.Insert(r.Context(), event)
			}
		})
	}
}

// routePattern returns the chi pattern ("/api/pedidos/{pedidoID}") so metric
// labels stay low-cardinality, falling back to the raw path before routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
