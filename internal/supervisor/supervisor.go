// Package supervisor implements the parent half of the preforking process
// model. Go has no fork(); the idiomatic substitute is a parent that
// re-executes its own binary N times via os/exec, handing each child its
// worker identity through an environment variable rather than copy-on-write
// address-space inheritance.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/ramforge/internal/logging"
	"github.com/dd0wney/ramforge/internal/metrics"
)

// WorkerIDEnv is the environment variable a re-exec'd child reads to learn
// its worker id and thereby its role.
const WorkerIDEnv = "RAMFORGE_WORKER_ID"

// State names the parent's position in the BOOT → RUNNING → DRAIN → DONE
// state machine.
type State string

const (
	StateBoot    State = "BOOT"
	StateRunning State = "RUNNING"
	StateDrain   State = "DRAIN"
	StateDone    State = "DONE"
)

// FatalExit is returned by Start when a supervised child exited in a way the
// fail-fast default policy treats as fatal: non-zero exit or signal death
// while the supervisor had not itself initiated shutdown.
type FatalExit struct {
	WorkerID int
	Code     int // -1 if the child died by signal rather than exiting
	Err      error
}

func (e *FatalExit) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("worker %d exited fatally: %v", e.WorkerID, e.Err)
	}
	return fmt.Sprintf("worker %d exited with code %d", e.WorkerID, e.Code)
}

type childExit struct {
	workerID int
	code     int
	err      error
}

type child struct {
	id        int
	cmd       *exec.Cmd
	startedAt time.Time
}

// Supervisor owns the set of worker child processes for one run of the
// cluster.
type Supervisor struct {
	log logging.Logger
	reg *metrics.Registry

	mu       sync.Mutex
	state    State
	children map[int]*child
	shutdown bool

	statusPath string
}

// New creates a Supervisor. statusPath, if non-empty, is refreshed with a
// live JSON snapshot of worker state on every observed transition, for
// cmd/ramforge-top to poll.
func New(log logging.Logger, reg *metrics.Registry, statusPath string) *Supervisor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Supervisor{
		log:        log.With(logging.Component("supervisor")),
		reg:        reg,
		state:      StateBoot,
		children:   make(map[int]*child),
		statusPath: statusPath,
	}
}

// Start spawns workerTarget children (each a re-exec of os.Args[0] with
// RAMFORGE_WORKER_ID set), waits for SIGINT/SIGTERM or a child exit, and then
// drives the DRAIN → DONE shutdown. It returns nil on a normal (code-0,
// non-shutdown-initiated) termination and a *FatalExit on a fatal one.
func (s *Supervisor) Start(ctx context.Context, workerTarget int, childEnv []string) error {
	exits := make(chan childExit, workerTarget)

	for id := 0; id < workerTarget; id++ {
		if err := s.spawn(id, childEnv, exits); err != nil {
			s.terminateAll()
			return fmt.Errorf("supervisor: spawning worker %d: %w", id, err)
		}
	}

	s.setState(StateRunning)
	s.writeStatus()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var fatal error
	remaining := workerTarget

loop:
	for remaining > 0 {
		select {
		case <-ctx.Done():
			s.beginShutdown()
		case sig := <-sigCh:
			s.log.Info("received signal, draining", logging.String("signal", sig.String()))
			s.beginShutdown()
		case exit := <-exits:
			remaining--
			s.reapChild(exit)

			if s.isShuttingDown() {
				continue loop
			}

			if exit.code == 0 && exit.err == nil {
				s.log.Info("worker exited normally, stopping cluster", logging.WorkerID(exit.workerID))
				s.beginShutdown()
				continue loop
			}

			s.log.Error("worker exited fatally, stopping cluster",
				logging.WorkerID(exit.workerID), logging.Int("code", exit.code), logging.Error(exit.err))
			fatal = &FatalExit{WorkerID: exit.workerID, Code: exit.code, Err: exit.err}
			s.beginShutdown()
		}
	}

	s.setState(StateDone)
	s.writeStatus()
	return fatal
}

func (s *Supervisor) spawn(id int, extraEnv []string, exits chan<- childExit) error {
	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(append([]string{}, os.Environ()...), append(extraEnv, fmt.Sprintf("%s=%d", WorkerIDEnv, id))...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	s.mu.Lock()
	s.children[id] = &child{id: id, cmd: cmd, startedAt: time.Now()}
	s.mu.Unlock()

	if s.reg != nil {
		s.reg.SetWorkersUp(len(s.children))
	}
	s.log.Info("worker spawned", logging.WorkerID(id), logging.Int("pid", cmd.Process.Pid))

	go func() {
		err := cmd.Wait()
		code, waitErr := exitCode(cmd, err)
		exits <- childExit{workerID: id, code: code, err: waitErr}
	}()
	return nil
}

// exitCode extracts a process exit code from cmd.Wait()'s error, reporting
// -1 when the child died by signal rather than via a normal exit.
func exitCode(cmd *exec.Cmd, waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return -1, fmt.Errorf("killed by signal %s", status.Signal())
		}
		return exitErr.ExitCode(), nil
	}
	return -1, waitErr
}

func (s *Supervisor) beginShutdown() {
	s.mu.Lock()
	already := s.shutdown
	s.shutdown = true
	s.state = StateDrain
	s.mu.Unlock()

	if already {
		return
	}
	s.writeStatus()
	s.terminateAll()
}

func (s *Supervisor) isShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Supervisor) terminateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.children {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Signal(syscall.SIGTERM)
		}
	}
}

func (s *Supervisor) reapChild(exit childExit) {
	s.mu.Lock()
	delete(s.children, exit.workerID)
	remaining := len(s.children)
	s.mu.Unlock()

	if s.reg != nil {
		s.reg.SetWorkersUp(remaining)
		kind := "normal"
		if exit.code != 0 || exit.err != nil {
			kind = "fatal"
		}
		s.reg.RecordWorkerExit(kind)
	}
	s.writeStatus()
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State reports the supervisor's current state-machine position.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
