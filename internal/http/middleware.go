package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/booking-engine/internal/application"
)

// ResolvePrincipal extracts the already-authenticated identity from the
// gateway supplied headers. Authentication itself happens upstream; the
// engine only consumes the resolved user.
func ResolvePrincipal() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromHeaders(r)
			if principal.UserID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFromHeaders(r *http.Request) application.Principal {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	isAdmin := strings.EqualFold(strings.TrimSpace(r.Header.Get("X-User-Admin")), "true")
	return application.Principal{UserID: userID, IsAdmin: isAdmin}
}

// RequestLogger attaches a request scoped logger to the context and records
// the request lifecycle.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
