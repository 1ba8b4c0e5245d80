//go:build linux

package worker

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU binds the calling thread to a single CPU core, spreading workers
// across the machine instead of letting the scheduler bounce them.
// Best-effort: a failure (e.g. insufficient privilege in a container) is
// reported but never fatal.
func pinToCPU(n int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(n % runtime.NumCPU())
	return unix.SchedSetaffinity(0, &set)
}
