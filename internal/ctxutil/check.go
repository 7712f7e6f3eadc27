// Package ctxutil provides context utility functions.
package ctxutil

import (
	"context"
	"time"
)

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done, nil otherwise. Called at the entry of
// every git operation so a canceled sync stops between steps.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// WithDefaultTimeout bounds ctx by timeout unless it already carries a deadline
// or timeout is not positive. The returned cancel func must always be called.
func WithDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
