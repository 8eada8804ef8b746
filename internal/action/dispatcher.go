package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/stigoleg/awake/internal/platform"
	"github.com/stigoleg/awake/internal/platform/patterns"
	"github.com/stigoleg/awake/internal/util"
)

// Defaults for Options.
const (
	DefaultKey            = "shift"
	DefaultAppHold        = 3 * time.Second
	DefaultCommandTimeout = 30 * time.Second
)

// Handler performs one keep-alive action.
type Handler func(ctx context.Context) error

// Options configures the built-in handlers. The app, browser and command
// handlers are registered only when their target is set.
type Options struct {
	Key string

	App     string
	AppArgs []string
	AppHold time.Duration

	URL string

	Command        string
	CommandTimeout time.Duration
}

// Dispatcher maps methods to handlers. It is not safe for concurrent use.
type Dispatcher struct {
	handlers map[Method]Handler
	rnd      *rand.Rand
	sleep    platform.Sleeper
	logger   *slog.Logger
}

// New creates an empty dispatcher.
func New(rnd *rand.Rand, logger *slog.Logger) *Dispatcher {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[Method]Handler),
		rnd:      rnd,
		sleep:    platform.SleepContext,
		logger:   logger.With("component", "action"),
	}
}

// NewDefault creates a dispatcher with the built-in handlers.
func NewDefault(inj platform.Injector, opener platform.Opener, opts Options, rnd *rand.Rand, logger *slog.Logger) *Dispatcher {
	d := New(rnd, logger)

	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	d.Register(MethodKey, func(ctx context.Context) error {
		return inj.PressKey(ctx, key)
	})

	gen := patterns.NewGenerator(d.rnd)
	d.Register(MethodMouse, func(ctx context.Context) error {
		p := gen.Generate()
		d.logger.Debug("mouse pattern", "shape", p.Shape, "points", len(p.Points))
		return platform.ExecutePattern(ctx, inj, gen, p.Points, d.sleep)
	})

	if opts.App != "" {
		hold := opts.AppHold
		if hold <= 0 {
			hold = DefaultAppHold
		}
		d.Register(MethodApp, func(ctx context.Context) error {
			return d.runApp(ctx, opts.App, opts.AppArgs, hold)
		})
	}

	if opts.URL != "" {
		d.Register(MethodBrowser, func(ctx context.Context) error {
			return opener.Open(ctx, opts.URL)
		})
	}

	if opts.Command != "" {
		timeout := opts.CommandTimeout
		if timeout <= 0 {
			timeout = DefaultCommandTimeout
		}
		d.Register(MethodCommand, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			name, args := shellCommand(opts.Command)
			out, err := util.Output(ctx, name, args...)
			if out != "" {
				d.logger.Debug("command output", "output", out)
			}
			return err
		})
	}
	return d
}

// Register sets the handler for a concrete method, replacing any previous
// one. MethodRandom cannot be registered.
func (d *Dispatcher) Register(m Method, h Handler) {
	if m == MethodRandom {
		panic("action: MethodRandom is chosen at dispatch and has no handler")
	}
	d.handlers[m] = h
}

// Methods lists the registered methods in declaration order.
func (d *Dispatcher) Methods() []Method {
	out := make([]Method, 0, len(d.handlers))
	for m := range d.handlers {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Invoke runs the handler for m and returns the method that actually ran.
// MethodRandom is resolved to a registered method before dispatch.
func (d *Dispatcher) Invoke(ctx context.Context, m Method) (Method, error) {
	if m == MethodRandom {
		methods := d.Methods()
		if len(methods) == 0 {
			return m, fmt.Errorf("%w: no methods registered for random", ErrUnknownMethod)
		}
		m = methods[d.rnd.Intn(len(methods))]
	}

	h, ok := d.handlers[m]
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrUnknownMethod, m)
	}

	start := time.Now()
	if err := h(ctx); err != nil {
		return m, fmt.Errorf("%s action: %w", m, err)
	}
	d.logger.Debug("keep-alive action done", "method", m, "took", time.Since(start))
	return m, nil
}

// runApp starts an application, keeps it for hold, then terminates it.
func (d *Dispatcher) runApp(ctx context.Context, name string, args []string, hold time.Duration) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	d.logger.Debug("application started", "app", name, "pid", cmd.Process.Pid)

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case err := <-exited:
		// Exited on its own: launchers often hand off and return.
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return err
			}
			d.logger.Debug("application exited early", "app", name, "error", err)
		}
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	if err := cmd.Process.Kill(); err != nil {
		d.logger.Warn("could not terminate application", "app", name, "error", err)
	}
	<-exited
	return ctx.Err()
}

func shellCommand(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "sh", []string{"-c", strings.TrimSpace(command)}
}
