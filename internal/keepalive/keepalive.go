package keepalive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyRunning is returned when starting a keeper that is running.
var ErrAlreadyRunning = errors.New("keep-alive already running")

// DefaultStopTimeout bounds how long Stop waits for the loop to exit.
const DefaultStopTimeout = 5 * time.Second

// Keeper runs a Monitor in the background and manages its lifecycle.
type Keeper struct {
	mu      sync.Mutex
	running bool
	monitor *Monitor
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	endTime time.Time
	logger  *slog.Logger
}

// NewKeeper wraps m.
func NewKeeper(m *Monitor, logger *slog.Logger) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &Keeper{
		monitor: m,
		done:    done,
		logger:  logger.With("component", "keeper"),
	}
}

// Monitor returns the wrapped loop.
func (k *Keeper) Monitor() *Monitor {
	return k.monitor
}

// IsRunning reports whether the loop goroutine is alive.
func (k *Keeper) IsRunning() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// StartIndefinite runs the loop until Stop.
func (k *Keeper) StartIndefinite() error {
	return k.start(0)
}

// StartTimed runs the loop for d.
func (k *Keeper) StartTimed(d time.Duration) error {
	if d <= 0 {
		return errors.New("duration must be positive")
	}
	return k.start(d)
}

func (k *Keeper) start(d time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	k.cancel = cancel
	k.done = done
	k.err = nil
	k.running = true
	k.endTime = time.Time{}
	if d > 0 {
		k.endTime = time.Now().Add(d)
	}

	go func() {
		err := k.monitor.RunFor(ctx, d)
		cancel()

		k.mu.Lock()
		k.running = false
		k.err = err
		k.mu.Unlock()
		close(done)
	}()

	if d > 0 {
		k.logger.Info("started", "duration", d)
	} else {
		k.logger.Info("started", "duration", "indefinite")
	}
	return nil
}

// Done is closed when the current run ends. It is closed already when the
// keeper is idle.
func (k *Keeper) Done() <-chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.done
}

// Err returns the error the last run ended with.
func (k *Keeper) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err
}

// Stop stops the loop and waits for its cleanup.
func (k *Keeper) Stop() error {
	return k.StopWithTimeout(0)
}

// StopWithTimeout stops the loop, waiting at most timeout for it to exit.
func (k *Keeper) StopWithTimeout(timeout time.Duration) error {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	cancel, done := k.cancel, k.done
	k.mu.Unlock()

	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		if err := k.Err(); err != nil {
			k.logger.Warn("stopped with error", "error", err)
			return err
		}
		k.logger.Info("stopped")
		return nil
	case <-timer.C:
		k.logger.Warn("stop timeout exceeded", "timeout", timeout)
		return context.DeadlineExceeded
	}
}

// TimeRemaining returns the time left in a timed run, or zero.
func (k *Keeper) TimeRemaining() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.running || k.endTime.IsZero() {
		return 0
	}
	return max(time.Until(k.endTime), 0)
}
