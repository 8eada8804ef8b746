package platform

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/awake/internal/platform/patterns"
)

func TestParseDisplayMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DisplayMode
		wantErr bool
	}{
		{in: "normal", want: DisplayNormal},
		{in: "", want: DisplayNormal},
		{in: "Dim", want: DisplayDim},
		{in: " SLEEP ", want: DisplaySleep},
		{in: "off", want: DisplayOff},
		{in: "bright", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDisplayMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "AC", PowerAC.String())
	assert.Equal(t, "Battery", PowerBattery.String())
	assert.Equal(t, "Unknown", PowerSource(9).String())
	assert.Equal(t, "Dim", DisplayDim.String())
	assert.Equal(t, "Off", DisplayOff.String())
	assert.Equal(t, "Unknown", DisplayMode(9).String())
}

func TestAllUnsupported(t *testing.T) {
	ctx := context.Background()
	c := AllUnsupported()

	_, err := c.Input.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = c.Chassis.IsLaptop(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, ok, err := c.Power.SleepTimeout(ctx, PowerAC)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Display.SetMode(ctx, DisplayDim), ErrUnsupported)
	assert.ErrorIs(t, c.Injector.PressKey(ctx, "shift"), ErrUnsupported)
	assert.ErrorIs(t, c.Opener.Open(ctx, "https://example.com"), ErrUnsupported)
	assert.NoError(t, c.Inhibitor.Deactivate())
}

type countingChassis struct {
	calls  int
	laptop bool
	err    error
}

func (c *countingChassis) IsLaptop(ctx context.Context) (bool, error) {
	c.calls++
	if _, ok := ctx.Deadline(); !ok {
		return false, errors.New("called without a deadline")
	}
	return c.laptop, c.err
}

func TestCachedChassis(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	inner := &countingChassis{laptop: true}
	c := NewCachedChassis(inner, DefaultChassisTTL)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.IsLaptop(ctx)
		require.NoError(t, err)
		assert.True(t, got)
	}
	assert.Equal(t, 1, inner.calls, "answer reused within the TTL")

	now = now.Add(DefaultChassisTTL)
	_, _ = c.IsLaptop(ctx)
	assert.Equal(t, 2, inner.calls, "answer refreshed after the TTL")

	c.Invalidate()
	_, _ = c.IsLaptop(ctx)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedChassisDoesNotCacheErrors(t *testing.T) {
	inner := &countingChassis{err: errors.New("dbus down")}
	c := NewCachedChassis(inner, time.Hour)

	_, err := c.IsLaptop(context.Background())
	assert.Error(t, err)
	_, err = c.IsLaptop(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

type fakeInjector struct {
	mu      sync.Mutex
	x, y    int
	moves   int
	failAt  int
	keys    []string
	lastCtx context.Context
}

func (f *fakeInjector) PressKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeInjector) MoveMouseRelative(ctx context.Context, dx, dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves++
	f.lastCtx = ctx
	if f.failAt > 0 && f.moves == f.failAt {
		return errors.New("injection failed")
	}
	f.x += dx
	f.y += dy
	return nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestExecutePatternReturnsHome(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		gen := patterns.NewGenerator(rand.New(rand.NewSource(seed)))
		p := gen.Generate()
		inj := &fakeInjector{}

		require.NoError(t, ExecutePattern(context.Background(), inj, gen, p.Points, noSleep))
		assert.Equal(t, 0, inj.x, "seed %d shape %s", seed, p.Shape)
		assert.Equal(t, 0, inj.y, "seed %d shape %s", seed, p.Shape)
		assert.Positive(t, inj.moves)
	}
}

func TestExecutePatternReturnsHomeOnFailure(t *testing.T) {
	gen := patterns.NewGenerator(rand.New(rand.NewSource(1)))
	points := []patterns.Point{{X: 10}, {X: 10, Y: 10}, {Y: 10}}
	inj := &fakeInjector{failAt: 3}

	err := ExecutePattern(context.Background(), inj, gen, points, noSleep)
	assert.Error(t, err)
	assert.Equal(t, 0, inj.x)
	assert.Equal(t, 0, inj.y)
}

func TestExecutePatternCancelled(t *testing.T) {
	gen := patterns.NewGenerator(rand.New(rand.NewSource(1)))
	points := []patterns.Point{{X: 5, Y: 5}, {X: 10, Y: 0}}
	inj := &fakeInjector{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecutePattern(ctx, inj, gen, points, noSleep)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, inj.x)
	assert.Equal(t, 0, inj.y)
	assert.NoError(t, inj.lastCtx.Err(), "the return move must not inherit cancellation")
}

func TestExecutePatternEmpty(t *testing.T) {
	inj := &fakeInjector{}
	gen := patterns.NewGenerator(rand.New(rand.NewSource(1)))
	assert.NoError(t, ExecutePattern(context.Background(), inj, gen, nil, nil))
	assert.Zero(t, inj.moves)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, SleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}

type fakeInhibitor struct {
	name        string
	err         error
	activated   int
	deactivated int
}

func (f *fakeInhibitor) Name() string { return f.name }

func (f *fakeInhibitor) Activate(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.activated++
	return nil
}

func (f *fakeInhibitor) Deactivate() error {
	f.deactivated++
	return nil
}

func TestInhibitorChain(t *testing.T) {
	broken := &fakeInhibitor{name: "systemd-inhibit", err: errors.New("not found")}
	working := &fakeInhibitor{name: "dbus-freedesktop"}
	spare := &fakeInhibitor{name: "xset"}
	chain := NewInhibitorChain(nil, broken, working, spare)
	ctx := context.Background()

	assert.Equal(t, "chain", chain.Name())
	require.NoError(t, chain.Activate(ctx))
	assert.Equal(t, "dbus-freedesktop", chain.Name())
	require.NoError(t, chain.Activate(ctx), "activating twice is a no-op")
	assert.Equal(t, 1, working.activated)
	assert.Zero(t, spare.activated)

	require.NoError(t, chain.Deactivate())
	require.NoError(t, chain.Deactivate())
	assert.Equal(t, 1, working.deactivated)
	assert.Equal(t, "chain", chain.Name())
}

func TestInhibitorChainAllFail(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	chain := NewInhibitorChain(nil,
		&fakeInhibitor{name: "one", err: errA},
		&fakeInhibitor{name: "two", err: errB},
	)
	err := chain.Activate(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	assert.ErrorIs(t, NewInhibitorChain(nil).Activate(context.Background()), ErrUnsupported)
}

const powercfgOutput = `Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced)
  Subgroup GUID: 238c9fa8-0aad-41ed-83f4-97be242c8f20  (Sleep)
    Power Setting GUID: 29f6c1db-86da-48c5-9fdb-f2b67b1f44da  (Sleep after)
      Minimum Possible Setting: 0x00000000
      Maximum Possible Setting: 0xffffffff
      Possible Settings increment: 0x00000001
      Possible Settings units: Seconds
    Current AC Power Setting Index: 0x00000708
    Current DC Power Setting Index: 0x00000000
`

func TestParsePowercfgTimeout(t *testing.T) {
	d, ok, err := ParsePowercfgTimeout(powercfgOutput, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, d)

	_, ok, err = ParsePowercfgTimeout(powercfgOutput, true)
	require.NoError(t, err)
	assert.False(t, ok, "zero means never")

	_, _, err = ParsePowercfgTimeout("Access denied", false)
	assert.Error(t, err)
	_, _, err = ParsePowercfgTimeout("Current AC Power Setting Index: 0xzz", false)
	assert.Error(t, err)
}

func TestVirtualKey(t *testing.T) {
	tests := []struct {
		name string
		want uint16
		ok   bool
	}{
		{"shift", 0x10, true},
		{"F15", 0x7E, true},
		{"f1", 0x70, true},
		{"f24", 0x87, true},
		{"a", 'A', true},
		{"7", '7', true},
		{"scrolllock", 0x91, true},
		{"f25", 0, false},
		{"hyper", 0, false},
	}
	for _, tt := range tests {
		got, ok := VirtualKey(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

const pmsetCustom = `Battery Power:
 lidwake              1
 standby              1
 sleep                10
 displaysleep         2
AC Power:
 lidwake              1
 standby              1
 sleep                0
 displaysleep         10
`

func TestParsePmset(t *testing.T) {
	d, ok, err := ParsePmsetSleep(pmsetCustom, PowerBattery)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, d)

	_, ok, err = ParsePmsetSleep(pmsetCustom, PowerAC)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParsePmsetSleep("AC Power:\n displaysleep 10\n", PowerAC)
	assert.Error(t, err)

	src, err := ParsePmsetSource("Now drawing from 'Battery Power'\n -InternalBattery-0 (id=1)\t81%; discharging")
	require.NoError(t, err)
	assert.Equal(t, PowerBattery, src)
	src, err = ParsePmsetSource("Now drawing from 'AC Power'")
	require.NoError(t, err)
	assert.Equal(t, PowerAC, src)
	_, err = ParsePmsetSource("pmset: command failed")
	assert.Error(t, err)
}

func TestMacHelpers(t *testing.T) {
	assert.True(t, IsMacLaptopModel("MacBookPro18,3"))
	assert.True(t, IsMacLaptopModel("MacBookAir10,1\n"))
	assert.False(t, IsMacLaptopModel("Macmini9,1"))
	assert.False(t, IsMacLaptopModel("iMac21,1"))

	code, ok := MacKeyCode("Shift")
	assert.True(t, ok)
	assert.Equal(t, 0x38, code)
	_, ok = MacKeyCode("hyper")
	assert.False(t, ok)
}
