package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/dataflex/internal/domain"
)

const tracerName = "github.com/neomorfeo/dataflex/internal/adapter/otel"

// TracingRepository wraps a domain.AgentRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.AgentRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.AgentRepository.
var _ domain.AgentRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.AgentRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, agent domain.Agent) error {
	ctx, span := r.tracer.Start(ctx, "AgentRepository.Create",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID),
			attribute.String("agent.code", agent.AgentCode),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, agent)
	recordError(span, err)
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	ctx, span := r.tracer.Start(ctx, "AgentRepository.GetByID",
		trace.WithAttributes(attribute.String("agent.id", id)),
	)
	defer span.End()

	agent, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return agent, err
}

func (r *TracingRepository) GetByIdentity(ctx context.Context, identityRef string) (domain.Agent, error) {
	ctx, span := r.tracer.Start(ctx, "AgentRepository.GetByIdentity",
		trace.WithAttributes(attribute.String("identity.id", identityRef)),
	)
	defer span.End()

	agent, err := r.next.GetByIdentity(ctx, identityRef)
	recordError(span, err)
	return agent, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Agent, error) {
	ctx, span := r.tracer.Start(ctx, "AgentRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	agents, err := r.next.List(ctx, filter)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(agents)))
	}
	return agents, err
}

func (r *TracingRepository) UpdateStatus(ctx context.Context, agent domain.Agent, expected domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "AgentRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID),
			attribute.String("agent.status", string(agent.Status)),
			attribute.String("agent.expected_status", string(expected)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, agent, expected)
	recordError(span, err)
	return err
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
