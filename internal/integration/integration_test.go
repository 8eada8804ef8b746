// Package integration exercises the keeper, monitor and scheduler together,
// including cleanup in a separate process on termination signals.
package integration

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/awake/internal/action"
	"github.com/stigoleg/awake/internal/activity"
	"github.com/stigoleg/awake/internal/keepalive"
	"github.com/stigoleg/awake/internal/logging"
	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/schedule"
)

// recorder appends one line per event to a file so a parent test can
// inspect what a helper process did.
type recorder struct {
	path string
	mu   sync.Mutex
}

func (r *recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, format+"\n", args...)
}

// lines returns the recorded events so far. A missing file means none.
func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// scriptedInput moves the pointer once, then holds it still, so the monitor
// sees one engaged poll followed by idle ones.
type scriptedInput struct {
	mu    sync.Mutex
	polls int
}

func (s *scriptedInput) Snapshot(context.Context) (activity.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.polls == 1 {
		return activity.Sample{Pointer: activity.Point{X: 0}}, nil
	}
	return activity.Sample{Pointer: activity.Point{X: 40}}, nil
}

type recordingDisplay struct{ *recorder }

func (d recordingDisplay) SetMode(_ context.Context, m platform.DisplayMode) error {
	d.record("display %s", m)
	return nil
}

type recordingInhibitor struct{ *recorder }

func (recordingInhibitor) Name() string { return "recording" }

func (i recordingInhibitor) Activate(context.Context) error {
	i.record("inhibit on")
	return nil
}

func (i recordingInhibitor) Deactivate() error {
	i.record("inhibit off")
	return nil
}

// newRecordedKeeper builds a keeper that always runs, dims the display once
// the scripted input goes still and holds an inhibitor. It never acts within a
// test's lifetime.
func newRecordedKeeper(rec *recorder) *keepalive.Keeper {
	logger := logging.Discard()
	sched := schedule.New(schedule.Config{ForceRun: true}, nil, logger)
	plat := platform.AllUnsupported()
	plat.Input = &scriptedInput{}
	plat.Display = recordingDisplay{rec}
	plat.Inhibitor = recordingInhibitor{rec}

	m := keepalive.NewMonitor(keepalive.MonitorConfig{
		WaitMin:      time.Hour,
		WaitMax:      time.Hour,
		PollInterval: 100 * time.Millisecond,
		IdleDisplay:  platform.DisplayDim,
		InhibitSleep: true,
	}, sched, plat, action.New(nil, logger), logger)
	return keepalive.NewKeeper(m, logger)
}

// assertRestored checks that the display was dimmed and then restored, and
// that the inhibitor was released.
func assertRestored(t *testing.T, lines []string) {
	t.Helper()
	require.NotEmpty(t, lines)
	assert.Equal(t, "inhibit on", lines[0])
	assert.Contains(t, lines, "display Dim")

	var lastDisplay string
	for _, l := range lines {
		if strings.HasPrefix(l, "display ") {
			lastDisplay = l
		}
	}
	assert.Equal(t, "display Normal", lastDisplay)
	assert.Equal(t, "inhibit off", lines[len(lines)-1])
}

func waitForDim(t *testing.T, rec *recorder) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, l := range rec.lines() {
			if l == "display Dim" {
				return true
			}
		}
		return false
	}, 10*time.Second, 50*time.Millisecond, "display was never dimmed")
}

func TestKeeperRestoresStateOnStop(t *testing.T) {
	rec := &recorder{path: t.TempDir() + "/events"}
	keeper := newRecordedKeeper(rec)

	require.NoError(t, keeper.StartIndefinite())
	assert.True(t, keeper.IsRunning())
	waitForDim(t, rec)

	require.NoError(t, keeper.Stop())
	assert.False(t, keeper.IsRunning())
	assertRestored(t, rec.lines())
	assert.Equal(t, keepalive.PhaseStopped, keeper.Monitor().Status().Phase)
}

func TestTimedRunRestoresStateWhenDone(t *testing.T) {
	rec := &recorder{path: t.TempDir() + "/events"}
	keeper := newRecordedKeeper(rec)

	require.NoError(t, keeper.StartTimed(500*time.Millisecond))
	assert.Greater(t, keeper.TimeRemaining(), time.Duration(0))

	select {
	case <-keeper.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed run did not end")
	}
	assert.NoError(t, keeper.Err())
	assertRestored(t, rec.lines())
}

func TestRestartAfterStop(t *testing.T) {
	rec := &recorder{path: t.TempDir() + "/events"}
	keeper := newRecordedKeeper(rec)

	for i := 0; i < 3; i++ {
		require.NoError(t, keeper.StartIndefinite(), "run %d", i)
		require.Eventually(t, func() bool {
			return keeper.Monitor().Status().Phase == keepalive.PhaseCountdown
		}, 5*time.Second, 20*time.Millisecond)
		require.NoError(t, keeper.Stop(), "run %d", i)
	}

	var on, off int
	for _, l := range rec.lines() {
		switch l {
		case "inhibit on":
			on++
		case "inhibit off":
			off++
		}
	}
	assert.Equal(t, 3, on)
	assert.Equal(t, 3, off)
}

func TestConcurrentStops(t *testing.T) {
	rec := &recorder{path: t.TempDir() + "/events"}
	keeper := newRecordedKeeper(rec)
	require.NoError(t, keeper.StartIndefinite())

	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			done <- keeper.Stop()
		}()
	}

	for i := 0; i < 5; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err, "concurrent stop %d should succeed", i)
		case <-time.After(5 * time.Second):
			t.Fatal("cleanup did not complete within timeout")
		}
	}

	assert.False(t, keeper.IsRunning(), "keeper should be stopped after multiple stops")

	var off int
	for _, l := range rec.lines() {
		if l == "inhibit off" {
			off++
		}
	}
	assert.Equal(t, 1, off, "cleanup must run once")
}

func TestStopWithShortTimeout(t *testing.T) {
	rec := &recorder{path: t.TempDir() + "/events"}
	keeper := newRecordedKeeper(rec)
	require.NoError(t, keeper.StartIndefinite())

	start := time.Now()
	err := keeper.StopWithTimeout(500 * time.Millisecond)
	assert.Less(t, time.Since(start), time.Second, "cleanup should complete within timeout")
	assert.NoError(t, err)
	assert.False(t, keeper.IsRunning())
}
