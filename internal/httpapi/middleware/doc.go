// Package middleware provides HTTP middleware components for the ramforge API server.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - request_id.go: Request ID generation and tracking middleware
//   - logging.go: Structured request logging middleware
//   - metrics.go: HTTP metrics collection middleware
//   - body_limit.go: Request body size limiting middleware
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// This allows easy chaining: handler = middleware1(middleware2(handler))
//
// Example usage:
//
//	mux := http.NewServeMux()
//	// ... register handlers ...
//
//	handler := middleware.PanicRecovery(log)(mux)
//	handler = middleware.RequestID()(handler)
//	handler = middleware.Logging(log, middleware.GetRequestID)(handler)
//	handler = middleware.Metrics(registry)(handler)
//	handler = middleware.BodySizeLimit(1 << 20)(handler)
//
//	http.ListenAndServe(":1109", handler)
package middleware
