// Package shield provides the HTTP middleware every wardfinder listener
// runs: security headers, JSON body limits, request tracing with a
// per-request logger, and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultJSONBodyLimit bounds JSON request bodies. A lookup body is one address.
const DefaultJSONBodyLimit = 16 * 1024

// DefaultStack returns the middleware stack in order:
// HeadToGet → SecurityHeaders → MaxJSONBody → TraceID.
func DefaultStack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxJSONBody(DefaultJSONBodyLimit),
		TraceID(logger),
	}
}
