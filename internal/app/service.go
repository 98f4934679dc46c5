package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// DefaultCodeAttempts bounds agent code regeneration on collisions.
const DefaultCodeAttempts = 5

// Repositories groups the record store ports the services read and write.
type Repositories struct {
	Agents  domain.AgentRepository
	Orders  domain.OrderRepository
	Catalog domain.CatalogRepository
	Admins  domain.AdminRepository
}

// AgentConfig tunes AgentService.
type AgentConfig struct {
	Policy       domain.SubscriptionPolicy
	CodeAttempts uint
	Logger       *slog.Logger
}

// AgentService orchestrates registration, lifecycle transitions and orders.
type AgentService struct {
	repos      Repositories
	identities domain.IdentityProvider
	publisher  domain.EventPublisher
	validator  domain.TransitionValidator
	policy     domain.SubscriptionPolicy
	attempts   uint
	logger     *slog.Logger
	opts       options
}

// NewAgentService creates a service with the given adapters.
func NewAgentService(repos Repositories, identities domain.IdentityProvider, publisher domain.EventPublisher, validator domain.TransitionValidator, cfg AgentConfig, opts ...Option) *AgentService {
	if cfg.Policy == nil {
		cfg.Policy = domain.FixedWindow{Days: domain.DefaultSubscriptionDays}
	}
	if cfg.CodeAttempts == 0 {
		cfg.CodeAttempts = DefaultCodeAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AgentService{
		repos:      repos,
		identities: identities,
		publisher:  publisher,
		validator:  validator,
		policy:     cfg.Policy,
		attempts:   cfg.CodeAttempts,
		logger:     cfg.Logger,
		opts:       buildOptions(opts),
	}
}

// Registration is everything an applicant submits.
type Registration struct {
	domain.AgentDetails
	domain.Credentials
}

// Register validates the application, creates the identity and then the
// pending agent record, and publishes a registration event.
func (s *AgentService) Register(ctx context.Context, reg Registration) (domain.Agent, error) {
	fields := append(reg.AgentDetails.Validate(), reg.Credentials.Validate()...)

	if !hasField(fields, "plan_id") {
		_, err := s.repos.Catalog.GetPlan(ctx, reg.PlanID)
		switch {
		case errors.Is(err, domain.ErrPlanNotFound):
			fields = append(fields, domain.FieldError{Field: "plan_id", Message: "Selected plan does not exist"})
		case err != nil:
			return domain.Agent{}, fmt.Errorf("looking up plan: %w", err)
		}
	}

	if len(fields) > 0 {
		return domain.Agent{}, &domain.ValidationError{Fields: fields}
	}

	identity, err := s.identities.SignUp(ctx, reg.Email, reg.Password)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("creating identity: %w", err)
	}

	var agent domain.Agent
	err = retry.New(
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isCodeConflict),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WarnContext(ctx, "agent code collision, regenerating", "attempt", n+1, "error", err)
		}),
	).Do(func() error {
		now := s.opts.now()
		code := domain.FormatAgentCode(now, s.opts.draw())

		a, err := domain.RegisterAgent(newID(), identity.ID, code, reg.AgentDetails, now)
		if err != nil {
			return err
		}
		if err := s.repos.Agents.Create(ctx, a); err != nil {
			return err
		}
		agent = a
		return nil
	})
	if err != nil {
		return domain.Agent{}, fmt.Errorf("creating agent: %w", err)
	}

	s.logger.InfoContext(ctx, "agent registered",
		"agent_id", agent.ID, "agent_code", agent.AgentCode, "status", agent.Status)

	if err := s.publisher.Publish(ctx, domain.EventRegister, agent); err != nil {
		return domain.Agent{}, fmt.Errorf("publishing registration event: %w", err)
	}

	return agent, nil
}

func isCodeConflict(err error) bool {
	var cErr *domain.ConflictError
	return errors.As(err, &cErr) && cErr.Field == "agent_code"
}

func hasField(fields []domain.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// GetByID returns an agent by its unique identifier.
func (s *AgentService) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	return s.repos.Agents.GetByID(ctx, id)
}

// GetByIdentity returns the agent owned by an identity.
func (s *AgentService) GetByIdentity(ctx context.Context, identityRef string) (domain.Agent, error) {
	return s.repos.Agents.GetByIdentity(ctx, identityRef)
}

// List returns agents matching the given filter, newest first.
func (s *AgentService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Agent, error) {
	return s.repos.Agents.List(ctx, filter)
}

// Transition moves an agent to target. Moving to the current status succeeds
// without writing or publishing anything.
func (s *AgentService) Transition(ctx context.Context, id string, target domain.Status) (domain.Agent, error) {
	agent, err := s.repos.Agents.GetByID(ctx, id)
	if err != nil {
		return domain.Agent{}, err
	}

	if agent.Status == target {
		return agent, nil
	}

	var plan domain.SubscriptionPlan
	if target == domain.StatusActive {
		plan, err = s.repos.Catalog.GetPlan(ctx, agent.PlanID)
		if err != nil && !errors.Is(err, domain.ErrPlanNotFound) {
			return domain.Agent{}, fmt.Errorf("looking up plan: %w", err)
		}
	}

	updated, err := domain.TransitionStatus(ctx, s.validator, agent, target, s.opts.now(), s.policy, plan)
	if err != nil {
		return domain.Agent{}, err
	}

	if err := s.repos.Agents.UpdateStatus(ctx, updated, agent.Status); err != nil {
		return domain.Agent{}, fmt.Errorf("updating agent: %w", err)
	}

	s.logger.InfoContext(ctx, "agent status changed",
		"agent_id", updated.ID, "agent_code", updated.AgentCode,
		"from", agent.Status, "status", updated.Status)

	event, _ := domain.EventFor(target)
	if err := s.publisher.Publish(ctx, event, updated); err != nil {
		return domain.Agent{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return updated, nil
}

// PlaceOrder buys product for the agent owned by identityRef at the product's
// current price. Only active agents may purchase.
func (s *AgentService) PlaceOrder(ctx context.Context, identityRef, productID string) (domain.Order, error) {
	agent, err := s.repos.Agents.GetByIdentity(ctx, identityRef)
	if err != nil {
		return domain.Order{}, err
	}

	product, err := s.repos.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := domain.NewOrder(newID(), agent, product, s.opts.now())
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("creating order: %w", err)
	}

	s.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID, "agent_id", agent.ID, "product_id", product.ID, "total", order.TotalPrice.StringFixed(2))

	return order, nil
}

// UpdateOrderStatus sets an order's fulfilment status.
func (s *AgentService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "status", Message: fmt.Sprintf("Unknown order status %q", status)},
		}}
	}

	if err := s.repos.Orders.UpdateStatus(ctx, id, status); err != nil {
		return domain.Order{}, err
	}

	return s.repos.Orders.GetByID(ctx, id)
}
