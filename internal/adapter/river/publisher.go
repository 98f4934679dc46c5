package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// AgentEventArgs carries a lifecycle event and a snapshot of the agent at the
// time it was published, so the worker never needs to query the database.
type AgentEventArgs struct {
	Event           string     `json:"event"`
	AgentID         string     `json:"agent_id"`
	AgentCode       string     `json:"agent_code"`
	Email           string     `json:"email"`
	Status          string     `json:"status"`
	PlanID          string     `json:"plan_id"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
}

// Kind returns the job type identifier used by River's job routing.
func (AgentEventArgs) Kind() string { return "agent.lifecycle" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a lifecycle event as an async job.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, agent domain.Agent) error {
	_, err := p.client.Insert(ctx, AgentEventArgs{
		Event:           string(event),
		AgentID:         agent.ID,
		AgentCode:       agent.AgentCode,
		Email:           agent.Email,
		Status:          string(agent.Status),
		PlanID:          agent.PlanID,
		SubscriptionEnd: agent.SubscriptionEnd,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
