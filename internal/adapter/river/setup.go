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
	MaxWorkers int
	Logger     *slog.Logger
	// Purger, when set, registers an hourly job that drops expired session
	// revocations.
	Purger        SessionPurger
	PurgeInterval time.Duration
}

// Setup creates a River client with the workers registered and runs River's
// internal migrations. The caller must call client.Start() to begin
// processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, opts Options) (*Client, error) {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = time.Hour
	}

	driver := riversqlite.New(db)

	// River's own tables are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &AgentEventWorker{logger: opts.Logger})

	var periodic []*river.PeriodicJob
	if opts.Purger != nil {
		river.AddWorker(workers, &PurgeSessionsWorker{purger: opts.Purger, logger: opts.Logger, now: time.Now})
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(opts.PurgeInterval),
			func() (river.JobArgs, *river.InsertOpts) { return PurgeSessionsArgs{}, nil },
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
