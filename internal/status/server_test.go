package status

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
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

type fixedSource struct {
	st keepalive.Status
}

func (f fixedSource) Status() keepalive.Status { return f.st }

type panicSource struct{}

func (panicSource) Status() keepalive.Status { panic("boom") }

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func sampleStatus() keepalive.Status {
	return keepalive.Status{
		Phase:   keepalive.PhaseCountdown,
		Method:  action.MethodMouse,
		Started: testNow.Add(-time.Hour),
		EndTime: testNow.Add(30 * time.Minute),
		Schedule: schedule.Verdict{
			ShouldRun: true,
			Reason:    "within working hours",
			Messages:  []string{"working day", "within working hours"},
		},
		Activity: activity.Observation{
			Verdict: activity.Verdict{
				IsActive:   true,
				Confidence: 80,
				Type:       activity.TypeKeyboard,
				Reasons:    []string{"typing detected"},
			},
		},
		Engaged:    true,
		IsLaptop:   true,
		Display:    platform.DisplayNormal,
		Wait:       2 * time.Minute,
		NextAction: testNow.Add(90 * time.Second),
		LastAction: keepalive.ActionResult{Method: action.MethodKey, Time: testNow.Add(-time.Minute)},
		Actions:    3,
		Health:     keepalive.HealthOK,
	}
}

func newTestServer(src Source) *Server {
	s := NewServer("127.0.0.1:0", src, "session-1", logging.Discard())
	s.now = func() time.Time { return testNow }
	return s
}

func TestGetStatus(t *testing.T) {
	s := newTestServer(fixedSource{sampleStatus()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "session-1", v.Session)
	assert.Equal(t, "counting down", v.Phase)
	assert.Equal(t, "mouse", v.Method)
	assert.Equal(t, 1800.0, v.TimeLeft)
	assert.True(t, v.Schedule.ShouldRun)
	assert.Nil(t, v.Schedule.NextRunTime)
	assert.Equal(t, "Keyboard", v.Activity.Type)
	assert.Equal(t, 80, v.Activity.Confidence)
	assert.True(t, v.Activity.Engaged)
	assert.Equal(t, 120.0, v.WaitSeconds)
	assert.Equal(t, 90.0, v.RemainingSeconds)
	require.NotNil(t, v.LastAction)
	assert.Equal(t, "key", v.LastAction.Method)
	assert.Equal(t, 3, v.Actions)
	assert.Equal(t, "ok", v.Health)
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name   string
		health keepalive.HealthState
		code   int
	}{
		{"unknown", keepalive.HealthUnknown, http.StatusOK},
		{"ok", keepalive.HealthOK, http.StatusOK},
		{"failing", keepalive.HealthFailed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := sampleStatus()
			st.Health = tt.health
			rec := httptest.NewRecorder()
			newTestServer(fixedSource{st}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.health.String(), body["health"])
		})
	}
}

func TestRoutes(t *testing.T) {
	h := newTestServer(fixedSource{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoversFromPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(panicSource{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestViewOmitsZeroTimes(t *testing.T) {
	v := NewView(keepalive.Status{}, "", testNow)
	assert.Nil(t, v.Started)
	assert.Nil(t, v.EndTime)
	assert.Nil(t, v.NextAction)
	assert.Nil(t, v.LastAction)
	assert.Zero(t, v.RemainingSeconds)
	assert.Equal(t, "stopped", v.Phase)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(fixedSource{sampleStatus()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "counting down")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunInvalidAddress(t *testing.T) {
	s := NewServer("256.0.0.1:bad", fixedSource{}, "", logging.Discard())
	assert.Error(t, s.Run(context.Background()))
}
