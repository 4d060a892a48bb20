// Package requestid tags every incoming request with a request ID and
// attaches it to the context-scoped logger, so all log lines of one
// request can be correlated.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	slogctx "github.com/veqryn/slog-context"
)

// Header carries the request ID back to the caller.
const Header = "X-Request-Id"

// Middleware is an http.Handler middleware that injects a request ID
// into the request context and the response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := slogctx.With(r.Context(), "request_id", id)
		w.Header().Set(Header, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
