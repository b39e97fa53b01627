package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/pushsync/queue"
)

// Logging returns middleware that logs job start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e queue.Entry, next Handler) error {
		logger.Info("job started",
			slog.String("job_kind", string(e.Job.Kind())),
			slog.String("job_id", e.ID.String()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("job_kind", string(e.Job.Kind())),
				slog.String("job_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job completed",
				slog.String("job_kind", string(e.Job.Kind())),
				slog.String("job_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
