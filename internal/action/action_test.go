package action

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInjector struct {
	keys  []string
	moves int
	x, y  int
	err   error
}

func (f *fakeInjector) PressKey(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

func (f *fakeInjector) MoveMouseRelative(_ context.Context, dx, dy int) error {
	f.moves++
	f.x += dx
	f.y += dy
	return f.err
}

type fakeOpener struct {
	opened []string
}

func (f *fakeOpener) Open(_ context.Context, target string) error {
	f.opened = append(f.opened, target)
	return nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestDispatcher(inj *fakeInjector, op *fakeOpener, opts Options) *Dispatcher {
	d := NewDefault(inj, op, opts, rand.New(rand.NewSource(3)), nil)
	d.sleep = noSleep
	return d
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"key", MethodKey},
		{"Mouse", MethodMouse},
		{" app ", MethodApp},
		{"BROWSER", MethodBrowser},
		{"command", MethodCommand},
		{"random", MethodRandom},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.want.String(), got.String())
	}

	_, err := ParseMethod("teleport")
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.Equal(t, "Method(42)", Method(42).String())
}

func TestMethodText(t *testing.T) {
	var m Method
	require.NoError(t, m.UnmarshalText([]byte("browser")))
	assert.Equal(t, MethodBrowser, m)

	b, err := MethodRandom.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "random", string(b))

	_, err = Method(-1).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.ErrorIs(t, m.UnmarshalText([]byte("nope")), ErrUnknownMethod)
}

func TestInvokeKey(t *testing.T) {
	inj := &fakeInjector{}
	d := newTestDispatcher(inj, &fakeOpener{}, Options{})

	ran, err := d.Invoke(context.Background(), MethodKey)
	require.NoError(t, err)
	assert.Equal(t, MethodKey, ran)
	assert.Equal(t, []string{DefaultKey}, inj.keys)

	d = newTestDispatcher(inj, &fakeOpener{}, Options{Key: "f15"})
	_, err = d.Invoke(context.Background(), MethodKey)
	require.NoError(t, err)
	assert.Equal(t, "f15", inj.keys[1])
}

func TestInvokeMouseReturnsHome(t *testing.T) {
	inj := &fakeInjector{}
	d := newTestDispatcher(inj, &fakeOpener{}, Options{})

	for i := 0; i < 10; i++ {
		_, err := d.Invoke(context.Background(), MethodMouse)
		require.NoError(t, err)
	}
	assert.Positive(t, inj.moves)
	assert.Zero(t, inj.x)
	assert.Zero(t, inj.y)
}

func TestInvokeBrowser(t *testing.T) {
	op := &fakeOpener{}
	d := newTestDispatcher(&fakeInjector{}, op, Options{URL: "https://example.com"})

	_, err := d.Invoke(context.Background(), MethodBrowser)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, op.opened)
}

func TestOptionalMethodsNotRegistered(t *testing.T) {
	d := newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{})
	assert.Equal(t, []Method{MethodKey, MethodMouse}, d.Methods())

	for _, m := range []Method{MethodApp, MethodBrowser, MethodCommand, Method(99)} {
		_, err := d.Invoke(context.Background(), m)
		assert.ErrorIs(t, err, ErrUnknownMethod, m.String())
	}
}

func TestInvokeRandom(t *testing.T) {
	d := New(rand.New(rand.NewSource(11)), nil)
	counts := map[Method]int{}
	for _, m := range []Method{MethodKey, MethodMouse, MethodBrowser} {
		d.Register(m, func(context.Context) error {
			counts[m]++
			return nil
		})
	}

	const n = 3000
	for i := 0; i < n; i++ {
		ran, err := d.Invoke(context.Background(), MethodRandom)
		require.NoError(t, err)
		assert.NotEqual(t, MethodRandom, ran)
	}
	for m, c := range counts {
		assert.InDelta(t, n/3, c, n/10, "method %s chosen %d times", m, c)
	}
	assert.Len(t, counts, 3)
}

func TestInvokeRandomEmpty(t *testing.T) {
	_, err := New(nil, nil).Invoke(context.Background(), MethodRandom)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRegisterRandomPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, nil).Register(MethodRandom, func(context.Context) error { return nil })
	})
}

func TestInvokeWrapsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	inj := &fakeInjector{err: boom}
	d := newTestDispatcher(inj, &fakeOpener{}, Options{})

	_, err := d.Invoke(context.Background(), MethodKey)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "key action")
}

func TestInvokeCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	d := newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{Command: "true"})
	_, err := d.Invoke(context.Background(), MethodCommand)
	assert.NoError(t, err)

	d = newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{Command: "exit 3"})
	_, err = d.Invoke(context.Background(), MethodCommand)
	assert.Error(t, err)
}

func TestInvokeApp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep")
	}

	t.Run("terminated after hold", func(t *testing.T) {
		d := newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{
			App:     "sleep",
			AppArgs: []string{"30"},
			AppHold: 50 * time.Millisecond,
		})
		start := time.Now()
		_, err := d.Invoke(context.Background(), MethodApp)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("exits on its own", func(t *testing.T) {
		d := newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{
			App:     "true",
			AppHold: time.Minute,
		})
		_, err := d.Invoke(context.Background(), MethodApp)
		assert.NoError(t, err)
	})

	t.Run("missing binary", func(t *testing.T) {
		d := newTestDispatcher(&fakeInjector{}, &fakeOpener{}, Options{App: "/nonexistent/awake-test-app"})
		_, err := d.Invoke(context.Background(), MethodApp)
		assert.Error(t, err)
	})
}
