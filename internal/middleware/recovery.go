package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/hoplink/hoplink/internal/apperr"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic and returns a 500 with the standard error envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.Any("panic", rvr),
						slog.String("stack", string(debug.Stack())),
					)

					writeError(w, apperr.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
