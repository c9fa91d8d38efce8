package resource

import (
	"context"
	"io"
)

// RateLimitedWriter throttles writes through a Controller.
type RateLimitedWriter struct {
	ctx context.Context //nolint:containedctx
	w   io.Writer
	rc  *Controller
}

// Writer wraps w so every write first waits for IO budget. ctx bounds the
// waits for the lifetime of the writer.
func (c *Controller) Writer(ctx context.Context, w io.Writer) io.Writer {
	if c == nil || c.ioLimiter == nil {
		return w
	}
	return &RateLimitedWriter{ctx: ctx, w: w, rc: c}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}
