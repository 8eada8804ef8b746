package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// InhibitorChain activates the first inhibitor that succeeds, in order.
type InhibitorChain struct {
	candidates []Inhibitor
	logger     *slog.Logger

	mu     sync.Mutex
	active Inhibitor
}

// NewInhibitorChain builds a chain over candidates.
func NewInhibitorChain(logger *slog.Logger, candidates ...Inhibitor) *InhibitorChain {
	if logger == nil {
		logger = slog.Default()
	}
	return &InhibitorChain{candidates: candidates, logger: logger}
}

func (c *InhibitorChain) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return c.active.Name()
	}
	return "chain"
}

// Activate is a no-op while an inhibitor is already held.
func (c *InhibitorChain) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil
	}

	var errs []error
	for _, inh := range c.candidates {
		if err := inh.Activate(ctx); err != nil {
			c.logger.Debug("inhibitor unavailable", "inhibitor", inh.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", inh.Name(), err))
			continue
		}
		c.active = inh
		c.logger.Info("sleep inhibitor active", "inhibitor", inh.Name())
		return nil
	}
	if len(errs) == 0 {
		return ErrUnsupported
	}
	return errors.Join(errs...)
}

// Deactivate releases the held inhibitor, if any.
func (c *InhibitorChain) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	err := c.active.Deactivate()
	c.logger.Info("sleep inhibitor released", "inhibitor", c.active.Name())
	c.active = nil
	return err
}
