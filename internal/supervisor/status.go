package supervisor

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dd0wney/ramforge/internal/logging"
)

// StatusWorker is one worker's entry in the status file a running
// supervisor writes for cmd/ramforge-top to poll. Workers don't share
// memory, so a file is the only channel between the two processes.
type StatusWorker struct {
	ID        int       `json:"id"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Status is the full snapshot written to statusPath on every observed
// transition.
type Status struct {
	State      State          `json:"state"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Workers    []StatusWorker `json:"workers"`
	WorkersUp  int            `json:"workers_up"`
	TotalSlots int            `json:"total_slots"`
}

// writeStatus serializes the current state to statusPath. Best-effort: a
// write failure is logged, not fatal — the TUI simply sees stale data until
// the next successful write.
func (s *Supervisor) writeStatus() {
	if s.statusPath == "" {
		return
	}

	s.mu.Lock()
	st := Status{
		State:      s.state,
		UpdatedAt:  time.Now(),
		Workers:    make([]StatusWorker, 0, len(s.children)),
		TotalSlots: len(s.children),
	}
	for _, c := range s.children {
		pid := 0
		if c.cmd.Process != nil {
			pid = c.cmd.Process.Pid
		}
		st.Workers = append(st.Workers, StatusWorker{ID: c.id, PID: pid, StartedAt: c.startedAt})
	}
	st.WorkersUp = len(st.Workers)
	s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.log.Error("marshaling status", logging.Error(err))
		return
	}

	tmp := s.statusPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error("writing status file", logging.Error(err))
		return
	}
	if err := os.Rename(tmp, s.statusPath); err != nil {
		s.log.Error("renaming status file", logging.Error(err))
	}
}
