//go:build !unix

package httpapi

import (
	"context"
	"net"
)

// listen is the non-unix fallback: no SO_REUSEPORT, so only one process can
// bind a given port at a time on this platform.
func listen(ctx context.Context, network, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, addr)
}
