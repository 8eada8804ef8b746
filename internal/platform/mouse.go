package platform

import (
	"context"
	"math"
	"time"

	"github.com/stigoleg/awake/internal/platform/patterns"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ExecutePattern walks the pointer through points, which are offsets from
// the starting position, with human-like delays, then returns it to where
// it started. The pointer is returned home even if a move fails midway.
func ExecutePattern(ctx context.Context, inj Injector, gen *patterns.Generator, points []patterns.Point, sleep Sleeper) (err error) {
	if len(points) == 0 {
		return nil
	}
	if sleep == nil {
		sleep = SleepContext
	}

	var curX, curY int
	moveTo := func(p patterns.Point) error {
		tx, ty := int(math.Round(p.X)), int(math.Round(p.Y))
		dx, dy := tx-curX, ty-curY
		if dx == 0 && dy == 0 {
			return nil
		}
		if err := inj.MoveMouseRelative(ctx, dx, dy); err != nil {
			return err
		}
		curX, curY = tx, ty
		return nil
	}

	defer func() {
		if curX != 0 || curY != 0 {
			if rerr := inj.MoveMouseRelative(context.WithoutCancel(ctx), -curX, -curY); rerr != nil && err == nil {
				err = rerr
			}
		}
	}()

	for i, pt := range points {
		if err := moveTo(pt); err != nil {
			return err
		}

		distance := patterns.SegmentDistance(points, i)
		delay := gen.MovementDelay(distance)
		if err := sleep(ctx, delay); err != nil {
			return err
		}

		if gen.ShouldPause() {
			if err := sleep(ctx, gen.PauseDelay()); err != nil {
				return err
			}
		}

		if gen.ShouldAddIntermediate(points, i, distance) {
			mid, midDelay := gen.IntermediatePoint(points, i, delay)
			if err := moveTo(mid); err != nil {
				return err
			}
			if err := sleep(ctx, midDelay); err != nil {
				return err
			}
		}
	}

	if err := moveTo(patterns.Point{}); err != nil {
		return err
	}
	return sleep(ctx, gen.ReturnDelay())
}
