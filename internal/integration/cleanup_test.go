package integration

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	helperEnv = "AWAKE_HELPER"
	recordEnv = "AWAKE_RECORD"
)

// TestCleanupOnSignal runs a keeper in a child process, signals it once the
// display is dimmed and checks the child restored everything before exiting.
func TestCleanupOnSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cleanup test in short mode")
	}
	if runtime.GOOS == "windows" {
		t.Skip("signals cannot be sent to a child process on windows")
	}

	for name, sig := range testSignals() {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{path: t.TempDir() + "/events"}

			cmd := exec.Command(os.Args[0], "-test.run=^TestSignalHelper$")
			cmd.Env = append(os.Environ(), helperEnv+"=1", recordEnv+"="+rec.path)
			require.NoError(t, cmd.Start(), "helper process should start")

			done := make(chan error, 1)
			go func() {
				done <- cmd.Wait()
			}()

			waitForDim(t, rec)
			require.NoError(t, cmd.Process.Signal(sig), "should send %s", name)

			select {
			case err := <-done:
				assert.NoError(t, err, "process should exit cleanly after %s", name)
			case <-time.After(5 * time.Second):
				_ = cmd.Process.Kill()
				t.Fatalf("process did not exit within timeout after %s", name)
			}
			assertRestored(t, rec.lines())
		})
	}
}

// TestSignalHelper is the child side of TestCleanupOnSignal.
func TestSignalHelper(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	keeper := newRecordedKeeper(&recorder{path: os.Getenv(recordEnv)})
	if err := keeper.StartIndefinite(); err != nil {
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-keeper.Done():
		os.Exit(2)
	}

	if err := keeper.Stop(); err != nil {
		os.Exit(3)
	}
	os.Exit(0)
}
