package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits one structured log line per security-relevant action
// (registration, login). Request identity comes from the chi request ID
// so audit lines correlate with the access log.
func Audit(r *http.Request, event string, attrs ...any) {
	fields := append([]any{
		slog.String("event", event),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
	}, attrs...)
	slog.InfoContext(r.Context(), "audit", fields...)
}
