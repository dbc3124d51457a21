package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// Options tunes the River client.
type Options struct {
	Logger     *slog.Logger
	MaxWorkers int

	// Purger, when set, is run every PurgeInterval (default one hour) and
	// once at startup to delete dead refresh tokens.
	Purger        TokenPurger
	PurgeInterval time.Duration
}

// Setup migrates River's own tables and returns a client with the workers
// registered. The caller starts and stops the client.
func Setup(ctx context.Context, db *sql.DB, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 2
	}

	driver := riversqlite.New(db)

	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{logger: opts.Logger})

	var periodic []*river.PeriodicJob
	if opts.Purger != nil {
		interval := opts.PurgeInterval
		if interval <= 0 {
			interval = time.Hour
		}
		river.AddWorker(workers, &PurgeTokensWorker{purger: opts.Purger, logger: opts.Logger, now: time.Now})
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return PurgeTokensArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(driver, &river.Config{
		Logger: opts.Logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: opts.MaxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
