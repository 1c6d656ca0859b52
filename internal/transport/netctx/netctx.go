// Package netctx ties context cancellation to net.Conn deadlines.
package netctx

import (
	"context"
	"time"
)

var aLongTimeAgo = time.Unix(1, 0)

// Watch moves the deadline set by setDeadline into the past once ctx is
// done, which unblocks a pending Read or Write. The returned stop function
// detaches the watcher.
func Watch(ctx context.Context, setDeadline func(time.Time) error) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return true }
	}
	return context.AfterFunc(ctx, func() {
		_ = setDeadline(aLongTimeAgo)
	})
}

// Err prefers the context error over err when ctx is already done, so a
// deadline forced by Watch surfaces as cancellation.
func Err(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
