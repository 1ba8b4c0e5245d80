//go:build !linux

package worker

// pinToCPU is a no-op on platforms without SCHED_SETAFFINITY; CPU pinning
// is a Linux-specific optimization, not a correctness requirement.
func pinToCPU(n int) error {
	return nil
}
