package keepalive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupTimeout bounds a full cleanup pass.
const DefaultCleanupTimeout = 5 * time.Second

// CleanupManager runs registered cleanups once, in registration order, under
// a timeout.
type CleanupManager struct {
	mu          sync.Mutex
	resources   []CleanupResource
	timeout     time.Duration
	cleanupOnce sync.Once
	result      []error
	logger      *slog.Logger
}

// CleanupResource is something that must be released on shutdown.
type CleanupResource interface {
	Cleanup() error
	Name() string
}

// CleanupFunc adapts a function to CleanupResource.
type CleanupFunc struct {
	name string
	fn   func() error
}

func (c *CleanupFunc) Cleanup() error {
	return c.fn()
}

func (c *CleanupFunc) Name() string {
	return c.name
}

// NewCleanupManager creates a manager. A non-positive timeout uses
// DefaultCleanupTimeout.
func NewCleanupManager(timeout time.Duration, logger *slog.Logger) *CleanupManager {
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupManager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a resource.
func (cm *CleanupManager) Register(resource CleanupResource) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.resources = append(cm.resources, resource)
}

// RegisterFunc registers a cleanup function.
func (cm *CleanupManager) RegisterFunc(name string, fn func() error) {
	cm.Register(&CleanupFunc{name: name, fn: fn})
}

// Execute cleans up every registered resource. Only the first call does any
// work; later calls return the same errors.
func (cm *CleanupManager) Execute() []error {
	cm.cleanupOnce.Do(func() {
		cm.result = cm.executeWithTimeout()
	})
	return cm.result
}

func (cm *CleanupManager) executeWithTimeout() []error {
	cm.mu.Lock()
	resources := make([]CleanupResource, len(cm.resources))
	copy(resources, cm.resources)
	cm.mu.Unlock()

	if len(resources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cm.timeout)
	defer cancel()

	done := make(chan struct{})
	var cleanupErrors []error
	var mu sync.Mutex
	record := func(err error) {
		mu.Lock()
		cleanupErrors = append(cleanupErrors, err)
		mu.Unlock()
	}

	go func() {
		defer close(done)
		for _, resource := range resources {
			func() {
				defer func() {
					if r := recover(); r != nil {
						record(fmt.Errorf("panic cleaning up %s: %v", resource.Name(), r))
						cm.logger.Error("cleanup panicked", "resource", resource.Name(), "panic", r)
					}
				}()

				if err := resource.Cleanup(); err != nil {
					record(fmt.Errorf("%s: %w", resource.Name(), err))
					cm.logger.Warn("cleanup failed", "resource", resource.Name(), "error", err)
					return
				}
				cm.logger.Debug("cleaned up", "resource", resource.Name())
			}()
		}
	}()

	select {
	case <-done:
		return cleanupErrors
	case <-ctx.Done():
		cm.logger.Warn("cleanup timed out, some resources may not have been released", "timeout", cm.timeout)
		mu.Lock()
		defer mu.Unlock()
		return append(cleanupErrors, errors.New("cleanup timeout exceeded"))
	}
}

// Clear drops all registered resources without running them.
func (cm *CleanupManager) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.resources = cm.resources[:0]
}
