package resource

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentFlushes is the maximum number of columns flushed at once.
	// If 0, defaults to GOMAXPROCS.
	MaxConcurrentFlushes int64

	// IOLimitBytesPerSec is the maximum write throughput across all columns.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	flushSem  *semaphore.Weighted
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentFlushes <= 0 {
		cfg.MaxConcurrentFlushes = int64(runtime.GOMAXPROCS(0))
	}

	c := &Controller{
		cfg:      cfg,
		flushSem: semaphore.NewWeighted(cfg.MaxConcurrentFlushes),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireFlush reserves a flush slot, blocking until one is free or ctx is done.
func (c *Controller) AcquireFlush(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.flushSem.Acquire(ctx, 1)
}

// ReleaseFlush releases a flush slot.
func (c *Controller) ReleaseFlush() {
	if c == nil {
		return
	}
	c.flushSem.Release(1)
}

// AcquireIO waits until the IO limit allows n bytes. Requests larger than
// the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
