package platform

import (
	"context"
	"sync"
	"time"
)

// DefaultChassisTTL is how long a laptop answer is reused before the
// chassis is queried again.
const DefaultChassisTTL = 5 * time.Minute

// CachedChassis memoises a ChassisDetector for a TTL. Errors are not cached.
type CachedChassis struct {
	inner ChassisDetector
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	laptop  bool
	checked time.Time
}

// NewCachedChassis wraps inner. A non-positive ttl disables caching.
func NewCachedChassis(inner ChassisDetector, ttl time.Duration) *CachedChassis {
	return &CachedChassis{inner: inner, ttl: ttl, now: time.Now}
}

func (c *CachedChassis) IsLaptop(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.checked.IsZero() && now.Sub(c.checked) < c.ttl {
		return c.laptop, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()
	laptop, err := c.inner.IsLaptop(ctx)
	if err != nil {
		return false, err
	}
	c.laptop, c.checked = laptop, now
	return laptop, nil
}

// Invalidate forces the next call to query the wrapped detector.
func (c *CachedChassis) Invalidate() {
	c.mu.Lock()
	c.checked = time.Time{}
	c.mu.Unlock()
}
