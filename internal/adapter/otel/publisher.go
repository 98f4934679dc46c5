package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with a span per event and a
// counter of published lifecycle events.
type TracingPublisher struct {
	next      domain.EventPublisher
	tracer    trace.Tracer
	published metric.Int64Counter
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	// Errors only for an invalid instrument name.
	counter, _ := otel.Meter(tracerName).Int64Counter("dataflex.agent.events",
		metric.WithDescription("Agent lifecycle events published"),
		metric.WithUnit("{event}"),
	)
	return &TracingPublisher{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		published: counter,
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event, agent domain.Agent) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("event.type", string(event)),
			attribute.String("agent.id", agent.ID),
			attribute.String("agent.code", agent.AgentCode),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, event, agent)
	if err != nil {
		recordError(span, err)
		return err
	}

	p.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", string(event)),
		attribute.String("agent.status", string(agent.Status)),
	))
	return nil
}
