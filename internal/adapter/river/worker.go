package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// AgentEventWorker records lifecycle events.
type AgentEventWorker struct {
	river.WorkerDefaults[AgentEventArgs]
	logger *slog.Logger
}

// Work processes a single event job.
func (w *AgentEventWorker) Work(ctx context.Context, job *river.Job[AgentEventArgs]) error {
	w.logger.InfoContext(ctx, "processing agent event",
		"event", job.Args.Event,
		"agent_id", job.Args.AgentID,
		"agent_code", job.Args.AgentCode,
		"status", job.Args.Status,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// PurgeSessionsArgs schedules removal of revocations for expired tokens.
type PurgeSessionsArgs struct{}

func (PurgeSessionsArgs) Kind() string { return "sessions.purge" }

// SessionPurger deletes revoked sessions that expired before now.
type SessionPurger interface {
	PurgeRevokedSessions(ctx context.Context, now time.Time) (int64, error)
}

// PurgeSessionsWorker keeps the revocation list from growing without bound.
type PurgeSessionsWorker struct {
	river.WorkerDefaults[PurgeSessionsArgs]
	purger SessionPurger
	logger *slog.Logger
	now    func() time.Time
}

func (w *PurgeSessionsWorker) Work(ctx context.Context, job *river.Job[PurgeSessionsArgs]) error {
	n, err := w.purger.PurgeRevokedSessions(ctx, w.now())
	if err != nil {
		return fmt.Errorf("purging revoked sessions: %w", err)
	}
	w.logger.InfoContext(ctx, "purged revoked sessions", "count", n, "job_id", job.ID)
	return nil
}
