// Package worker implements a single engine process: it loads durable
// state, pins itself to a CPU core, serves the HTTP API, and runs until
// terminated. Whether it is the sole process (in-process mode) or one of
// many re-exec'd children under a supervisor is invisible from in here.
package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dd0wney/ramforge/internal/config"
	"github.com/dd0wney/ramforge/internal/health"
	"github.com/dd0wney/ramforge/internal/httpapi"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
	"github.com/dd0wney/ramforge/internal/persistence"
)

// IDEnv mirrors supervisor.WorkerIDEnv; duplicated here as a plain string
// constant so this package doesn't need to import supervisor just to read
// one environment variable name.
const IDEnv = "RAMFORGE_WORKER_ID"

// IDFromEnv reports this process's worker id and whether it was told one at
// all. A bare in-process run (no supervisor) is id 0 with ok=false.
func IDFromEnv() (int, bool) {
	v, ok := os.LookupEnv(IDEnv)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Run boots one worker's durability layer and HTTP server and blocks until
// ctx is cancelled or the HTTP server fails. id is used only for CPU
// pinning, status reporting, and log/metric labeling — it carries no
// semantic weight over the data itself, since every worker in a cluster
// owns the same full keyspace (no sharding).
func Run(ctx context.Context, id int, cfg config.Config, log logging.Logger, reg *metrics.Registry) error {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.WorkerID(id))

	if err := pinToCPU(id); err != nil {
		log.Warn("cpu pinning failed, continuing unpinned", logging.Error(err))
	}

	persist, err := persistence.Init(persistence.Config{
		RDBPath:          cfg.RDBPath,
		AOFPath:          cfg.AOFPath,
		AOFFlushInterval: cfg.AOFFlushInterval(),
		SnapshotInterval: cfg.SnapshotInterval,
	}, log, reg)
	if err != nil {
		return fmt.Errorf("worker %d: loading durable state: %w", id, err)
	}
	defer func() {
		if err := persist.Shutdown(); err != nil {
			log.Error("shutdown snapshot failed", logging.Error(err))
		}
	}()

	checker := health.NewHealthChecker()
	checker.RegisterLivenessCheck("aof_writable", health.AOFWritableCheck(persist.LastAppendError))
	checker.RegisterReadinessCheck("rdb_loaded", func() health.Check { return health.SimpleCheck("rdb_loaded") })

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Port))
	server := httpapi.New(addr, persist.Index(), persist, log, reg, checker)

	// SIGTERM keeps its default disposition: a supervised worker that
	// receives it is torn down immediately by the kernel rather than
	// attempting an HTTP drain. This is safe because every acknowledged
	// write is already durable before the response is sent; the
	// only orchestrated shutdown path is ctx, used by the in-process
	// (unsupervised) run mode.
	signal.Reset(syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", logging.Error(err))
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("worker %d: http server: %w", id, err)
		}
		return nil
	}
}
