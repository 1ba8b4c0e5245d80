//go:build unix

package httpapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestListenAllowsMultipleServersOnSamePort exercises the same situation the
// default, unflagged multi-worker topology relies on: several independent
// processes binding the same port via SO_REUSEPORT rather than racing to be
// the first to claim it.
func TestListenAllowsMultipleServersOnSamePort(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := probe.Addr().String()
	require.NoError(t, probe.Close())

	const workers = 2
	servers := make([]*http.Server, workers)
	for i := 0; i < workers; i++ {
		ln, err := listen(context.Background(), "tcp", addr)
		require.NoError(t, err, "worker %d should bind the shared port via SO_REUSEPORT", i)

		id := i
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "worker-%d", id)
		})
		srv := &http.Server{Handler: mux}
		servers[i] = srv
		go srv.Serve(ln)
	}
	t.Cleanup(func() {
		for _, srv := range servers {
			_ = srv.Close()
		}
	})

	client := &http.Client{Timeout: 2 * time.Second}
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp, err := client.Get("http://" + addr + "/")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		seen[string(body)] = true
	}

	require.NotEmpty(t, seen, "at least one of the reuseport listeners must have served traffic")
}
