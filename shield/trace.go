package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hazyhaar/wardfinder/kit"
)

// TraceID generates a trace ID for each request and injects it into the
// context, the X-Trace-ID response header and a per-request logger derived
// from base (slog.Default() when nil). An incoming X-Request-ID is kept
// under kit.RequestIDKey.
func TraceID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			root := base
			if root == nil {
				root = slog.Default()
			}
			traceID := uuid.Must(uuid.NewV7()).String()

			ctx := kit.WithTraceID(r.Context(), traceID)
			ctx = kit.WithTransport(ctx, "http")
			ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)
			w.Header().Set("X-Trace-ID", traceID)

			attrs := []any{
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			}
			if rid := r.Header.Get("X-Request-ID"); rid != "" {
				ctx = kit.WithRequestID(ctx, rid)
				attrs = append(attrs, "request_id", rid)
			}
			logger := root.With(attrs...)
			ctx = context.WithValue(ctx, LoggerKey, logger)
			logger.Debug("request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
