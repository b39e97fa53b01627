package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/pushsync/queue"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace, so
// one bad job cannot take down the worker.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e queue.Entry, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job handler panicked",
					slog.String("job_kind", string(e.Job.Kind())),
					slog.String("job_id", e.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in %s job: %v", e.Job.Kind(), r)
			}
		}()
		return next(ctx)
	}
}
