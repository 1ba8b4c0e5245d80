package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/ramforge/internal/config"
	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
	"github.com/dd0wney/ramforge/internal/supervisor"
	"github.com/dd0wney/ramforge/internal/worker"
)

func main() {
	os.Exit(run())
}

// run wires the three roles this binary can take: a
// re-exec'd worker child, an unsupervised in-process worker, or the
// supervisor parent that spawns and reaps the former.
func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logging.NewDefaultLogger()
	reg := metrics.DefaultRegistry()

	if id, ok := worker.IDFromEnv(); ok {
		if err := worker.Run(context.Background(), id, cfg, log, reg); err != nil {
			log.Error("worker exited with error", logging.Error(err))
			return 2
		}
		return 0
	}

	if cfg.InProcess() {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := worker.Run(ctx, 0, cfg, log, reg); err != nil {
			log.Error("worker exited with error", logging.Error(err))
			return 2
		}
		return 0
	}

	sup := supervisor.New(log, reg, cfg.StatusPath)
	err = sup.Start(context.Background(), cfg.Workers, nil)
	if err == nil {
		return 0
	}

	var fatal *supervisor.FatalExit
	if errors.As(err, &fatal) {
		log.Error("cluster stopped on fatal worker exit", logging.Int("worker_id", fatal.WorkerID), logging.Error(err))
		return 2
	}
	log.Error("supervisor exited with error", logging.Error(err))
	return 1
}
