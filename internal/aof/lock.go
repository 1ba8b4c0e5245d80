package aof

import "golang.org/x/sys/unix"

// withFileLock takes an exclusive advisory flock on the sidecar lock file
// for the duration of fn. This is the belt-and-suspenders half of the
// multi-worker append atomicity: the consolidated single-write already
// gives atomicity on filesystems that honor POSIX O_APPEND semantics for
// record-sized writes, and the flock protects the platforms that don't.
func (a *AOF) withFileLock(fn func() error) error {
	fd := int(a.lockFile.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(fd, unix.LOCK_UN)
	return fn()
}
