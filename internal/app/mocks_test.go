package app_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/dataflex/internal/app"
	"github.com/neomorfeo/dataflex/internal/domain"
)

// --- Mocks ---

type mockAgents struct {
	agents map[string]domain.Agent
	codes  map[string]bool
	// staleOnce makes the next UpdateStatus report a lost update.
	staleOnce bool
	updates   int
}

func newMockAgents() *mockAgents {
	return &mockAgents{agents: make(map[string]domain.Agent), codes: make(map[string]bool)}
}

func (m *mockAgents) Create(_ context.Context, a domain.Agent) error {
	if m.codes[a.AgentCode] {
		return &domain.ConflictError{Field: "agent_code", Value: a.AgentCode}
	}
	for _, existing := range m.agents {
		if existing.IdentityRef == a.IdentityRef {
			return &domain.ConflictError{Field: "identity", Value: a.IdentityRef}
		}
	}
	m.agents[a.ID] = a
	m.codes[a.AgentCode] = true
	return nil
}

func (m *mockAgents) GetByID(_ context.Context, id string) (domain.Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return domain.Agent{}, domain.ErrAgentNotFound
	}
	return a, nil
}

func (m *mockAgents) GetByIdentity(_ context.Context, ref string) (domain.Agent, error) {
	for _, a := range m.agents {
		if a.IdentityRef == ref {
			return a, nil
		}
	}
	return domain.Agent{}, domain.ErrAgentNotFound
}

func (m *mockAgents) List(_ context.Context, f domain.ListFilter) ([]domain.Agent, error) {
	out := make([]domain.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		if f.Status == nil || a.Status == *f.Status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAgents) UpdateStatus(_ context.Context, a domain.Agent, expected domain.Status) error {
	m.updates++
	stored, ok := m.agents[a.ID]
	if !ok {
		return domain.ErrAgentNotFound
	}
	if m.staleOnce || stored.Status != expected {
		m.staleOnce = false
		return &domain.StaleStatusError{AgentID: a.ID, Expected: expected}
	}
	m.agents[a.ID] = a
	return nil
}

type mockOrders struct {
	orders []domain.Order
}

func (m *mockOrders) Create(_ context.Context, o domain.Order) error {
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, id string) (domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (m *mockOrders) List(_ context.Context, agentID string, limit int) ([]domain.Order, error) {
	var out []domain.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if agentID == "" || m.orders[i].AgentID == agentID {
			out = append(out, m.orders[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

type mockCatalog struct {
	plans    []domain.SubscriptionPlan
	products []domain.Product
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		plans: []domain.SubscriptionPlan{
			{ID: "P1", Name: "Quarterly", DurationMonths: 3, Price: decimal.NewFromInt(50)},
		},
		products: []domain.Product{
			{ID: "mtn-1gb", Name: "1GB", Provider: "MTN", Price: decimal.RequireFromString("6.00")},
			{ID: "mtn-5gb", Name: "5GB", Provider: "MTN", Price: decimal.RequireFromString("27.00")},
			{ID: "at-2gb", Name: "2GB", Provider: "AirtelTigo", Price: decimal.RequireFromString("10.00")},
		},
	}
}

func (m *mockCatalog) ListPlans(context.Context) ([]domain.SubscriptionPlan, error) {
	return m.plans, nil
}

func (m *mockCatalog) GetPlan(_ context.Context, id string) (domain.SubscriptionPlan, error) {
	for _, p := range m.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.SubscriptionPlan{}, domain.ErrPlanNotFound
}

func (m *mockCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return m.products, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (m *mockCatalog) UpsertPlan(_ context.Context, p domain.SubscriptionPlan) error {
	m.plans = append(m.plans, p)
	return nil
}

func (m *mockCatalog) UpsertProduct(_ context.Context, p domain.Product) error {
	m.products = append(m.products, p)
	return nil
}

type mockAdmins struct {
	admins map[string]domain.AdminUser
}

func (m *mockAdmins) Create(_ context.Context, a domain.AdminUser) error {
	m.admins[a.IdentityRef] = a
	return nil
}

func (m *mockAdmins) GetByIdentity(_ context.Context, ref string) (domain.AdminUser, error) {
	a, ok := m.admins[ref]
	if !ok {
		return domain.AdminUser{}, domain.ErrAdminNotFound
	}
	return a, nil
}

// mockIdentities issues the identity ID as the session token.
type mockIdentities struct {
	byEmail  map[string]domain.Identity
	password map[string]string
	revoked  map[string]bool
	signUps  int
}

func newMockIdentities() *mockIdentities {
	return &mockIdentities{
		byEmail:  make(map[string]domain.Identity),
		password: make(map[string]string),
		revoked:  make(map[string]bool),
	}
}

func (m *mockIdentities) SignUp(_ context.Context, email, password string) (domain.Identity, error) {
	if _, ok := m.byEmail[email]; ok {
		return domain.Identity{}, &domain.ConflictError{Field: "email", Value: email}
	}
	m.signUps++
	id := domain.Identity{ID: "id-" + email, Email: email}
	m.byEmail[email] = id
	m.password[email] = password
	return id, nil
}

func (m *mockIdentities) SignIn(_ context.Context, email, password string) (domain.Session, error) {
	id, ok := m.byEmail[email]
	if !ok || m.password[email] != password {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	delete(m.revoked, id.ID)
	return domain.Session{Token: id.ID, Identity: id}, nil
}

func (m *mockIdentities) SignOut(_ context.Context, token string) error {
	m.revoked[token] = true
	return nil
}

func (m *mockIdentities) CurrentIdentity(_ context.Context, token string) (domain.Identity, error) {
	if m.revoked[token] {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	for _, id := range m.byEmail {
		if id.ID == token {
			return id, nil
		}
	}
	return domain.Identity{}, domain.ErrUnauthenticated
}

type publishedEvent struct {
	event domain.Event
	agent domain.Agent
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, a domain.Agent) error {
	m.events = append(m.events, publishedEvent{event: e, agent: a})
	return nil
}

// --- Fixture ---

var now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	agents     *mockAgents
	orders     *mockOrders
	catalog    *mockCatalog
	admins     *mockAdmins
	identities *mockIdentities
	publisher  *mockPublisher
	repos      app.Repositories
}

func newFixture() *fixture {
	f := &fixture{
		agents:     newMockAgents(),
		orders:     &mockOrders{},
		catalog:    newMockCatalog(),
		admins:     &mockAdmins{admins: make(map[string]domain.AdminUser)},
		identities: newMockIdentities(),
		publisher:  &mockPublisher{},
	}
	f.repos = app.Repositories{Agents: f.agents, Orders: f.orders, Catalog: f.catalog, Admins: f.admins}
	return f
}

func validRegistration(email string) app.Registration {
	return app.Registration{
		AgentDetails: domain.AgentDetails{FullName: "Ama Serwaa", Email: email, Phone: "0241234567", PlanID: "P1"},
		Credentials:  domain.Credentials{Password: "secret1", ConfirmPassword: "secret1", AgreeToTerms: true},
	}
}
