package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/ramforge/internal/logging"
)

// PanicRecovery creates middleware that recovers from panics in HTTP handlers.
// This prevents worker crashes and returns a proper error response.
// Internal details are logged but not exposed to clients.
func PanicRecovery(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic in http handler",
						logging.String("method", r.Method),
						logging.Path(r.URL.Path),
						logging.Any("panic", rec),
						logging.String("stack", string(debug.Stack())),
					)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
