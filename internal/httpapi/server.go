// Package httpapi wires the engine (index + persistence controller) to its
// HTTP/JSON surface: POST/GET /users, POST /admin/compact, GET /health,
// GET /metrics. Routing, JSON framing, and the middleware chain are
// implemented here with the stdlib plus this family's own middleware
// package.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/ramforge/internal/health"
	"github.com/dd0wney/ramforge/internal/httpapi/middleware"
	"github.com/dd0wney/ramforge/internal/index"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
	"github.com/dd0wney/ramforge/internal/persistence"
)

// maxBodyBytes bounds incoming request bodies, per the body-size-limit
// middleware.
const maxBodyBytes = 1 << 20

// Server is one worker's HTTP surface over its index and persistence
// controller.
type Server struct {
	httpServer *http.Server
	idx        *index.Index
	persist    *persistence.Controller
	log        logging.Logger
	reg        *metrics.Registry
	health     *health.HealthChecker
}

// New builds a Server listening on addr, wiring the full middleware chain
// (panic recovery → request ID → logging → metrics → body-size limit →
// handler) ahead of every route.
func New(addr string, idx *index.Index, persist *persistence.Controller, log logging.Logger, reg *metrics.Registry, checker *health.HealthChecker) *Server {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.Component("httpapi"))

	s := &Server{idx: idx, persist: persist, log: log, reg: reg, health: checker}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("POST /admin/compact", s.handleCompact)
	mux.HandleFunc("GET /health", s.handleHealth)
	if checker != nil {
		mux.HandleFunc("GET /healthz/live", checker.LivenessHandler())
		mux.HandleFunc("GET /healthz/ready", checker.ReadinessHandler())
	}
	if reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg.PrometheusRegistry(), promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = middleware.BodySizeLimit(maxBodyBytes)(handler)
	if reg != nil {
		handler = middleware.Metrics(reg)(handler)
	}
	handler = middleware.Logging(log, middleware.GetRequestID)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(log)(handler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the HTTP server until it is shut down. It returns
// http.ErrServerClosed on a clean Shutdown, matching net/http's own contract.
// The listener is opened with SO_REUSEPORT (on platforms that support it) so
// that every sibling worker in a supervised cluster can bind the same port
// independently rather than only the first one to start.
func (s *Server) ListenAndServe() error {
	ln, err := listen(context.Background(), "tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("http server listening", logging.String("addr", s.httpServer.Addr))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
