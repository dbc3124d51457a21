package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker records each committed domain event in the audit log.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	logger *slog.Logger
}

func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	logger := w.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "processing domain event",
		"event", job.Args.Name,
		"event_id", job.Args.EventID,
		"occurred_at", job.Args.OccurredAt,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
