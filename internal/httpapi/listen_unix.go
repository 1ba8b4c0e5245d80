//go:build unix

package httpapi

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listen opens addr with SO_REUSEPORT set on the underlying socket, so that
// every sibling worker process in a supervised cluster can bind the same
// port independently and let the kernel load-balance accepted connections
// across them, instead of racing to be the one process that wins the bind.
func listen(ctx context.Context, network, addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(ctx, network, addr)
}
