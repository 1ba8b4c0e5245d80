package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/ramforge/internal/logging"
)

// TestMain re-execs this test binary as a fake "worker" when RAMFORGE_WORKER_ID
// is set, letting Start() spawn real, short-lived child processes without a
// separate worker binary (the same self-re-exec trick the supervisor itself
// relies on).
func TestMain(m *testing.M) {
	if _, ok := os.LookupEnv(WorkerIDEnv); ok {
		switch os.Getenv("RAMFORGE_TEST_CHILD_MODE") {
		case "fail":
			os.Exit(1)
		case "hang":
			time.Sleep(10 * time.Second)
			os.Exit(0)
		default:
			os.Exit(0)
		}
	}
	os.Exit(m.Run())
}

func TestStartAllWorkersExitCleanStopsCluster(t *testing.T) {
	sup := New(logging.NewNopLogger(), nil, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sup.Start(ctx, 2, nil)
	assert.NoError(t, err)
	assert.Equal(t, StateDone, sup.State())
}

func TestStartOneWorkerFailsIsFatal(t *testing.T) {
	sup := New(logging.NewNopLogger(), nil, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sup.Start(ctx, 1, []string{"RAMFORGE_TEST_CHILD_MODE=fail"})
	require.Error(t, err)
	var fatal *FatalExit
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, fatal.Code)
}

func TestStartWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, "status.json")

	sup := New(logging.NewNopLogger(), nil, statusPath)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sup.Start(ctx, 1, nil))

	_, err := os.Stat(statusPath)
	assert.NoError(t, err)
}
