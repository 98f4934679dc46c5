package domain

import "context"

// AgentRepository defines the persistence contract for agents.
type AgentRepository interface {
	Create(ctx context.Context, agent Agent) error
	GetByID(ctx context.Context, id string) (Agent, error)
	GetByIdentity(ctx context.Context, identityRef string) (Agent, error)
	List(ctx context.Context, filter ListFilter) ([]Agent, error)
	// UpdateStatus writes agent's status and subscription window only if the
	// stored status still equals expected.
	UpdateStatus(ctx context.Context, agent Agent, expected Status) error
}

// ListFilter holds optional criteria for listing agents.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// OrderRepository defines the persistence contract for orders.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	GetByID(ctx context.Context, id string) (Order, error)
	// List returns orders newest first. An empty agentID lists every order.
	List(ctx context.Context, agentID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

// CatalogRepository reads plans and products.
type CatalogRepository interface {
	ListPlans(ctx context.Context) ([]SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (SubscriptionPlan, error)
	// ListProducts returns products ordered by provider, then price.
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
}

// AdminRepository looks up privileged identities.
type AdminRepository interface {
	Create(ctx context.Context, admin AdminUser) error
	GetByIdentity(ctx context.Context, identityRef string) (AdminUser, error)
}

// IdentityProvider signs identities up, in and out.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentIdentity(ctx context.Context, token string) (Identity, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, agent Agent) error
}

// TransitionValidator checks an event against the lifecycle and returns the
// destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
	Available(current Status) []Event
}
