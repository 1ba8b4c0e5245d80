package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/ramforge/internal/logging"
)

// Logging creates middleware that logs HTTP requests as structured JSON lines.
// It uses the request ID from context if available.
func Logging(log logging.Logger, getRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Latency(time.Since(start)),
			}
			if getRequestID != nil {
				if id := getRequestID(r); id != "" {
					fields = append(fields, logging.String("request_id", id))
				}
			}
			log.Info("http_request", fields...)
		})
	}
}
