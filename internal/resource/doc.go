// Package resource bounds the work a table writer does in the background.
//
// A Controller governs two resources:
//
//   - Concurrency: the number of column flushes running at once (semaphore).
//   - IO: the byte rate of page writes reaching a blob (token bucket).
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentFlushes: 4,
//	    IOLimitBytesPerSec:   64 << 20,
//	})
//
//	if err := rc.AcquireFlush(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseFlush()
//
//	sink := rc.Writer(ctx, blob) // throttled io.Writer
//
// All Controller methods are safe for concurrent use. A nil *Controller
// imposes no limits.
package resource
