package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of batch work run on a cron schedule.
type Job interface {
	Run(ctx context.Context) error
}

const defaultJobTimeout = 5 * time.Minute

// Schedule registers job on c. Each run gets its own context bounded by
// timeout; a non-positive timeout uses the default.
func Schedule(c *cron.Cron, spec, name string, job Job, timeout time.Duration, logger *slog.Logger) (cron.EntryID, error) {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	log := logger.With("job", name)

	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info("Triggering scheduled job")
		if err := job.Run(ctx); err != nil {
			log.Error("Scheduled job failed", "error", err)
			return
		}
		log.Info("Scheduled job completed")
	})
}
