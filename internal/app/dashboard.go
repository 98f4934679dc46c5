package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/dataflex/internal/domain"
)

const (
	agentRecentOrders = 5
	adminRecentOrders = 10
)

// DashboardService assembles read-only view models from store snapshots.
type DashboardService struct {
	repos Repositories
}

func NewDashboardService(repos Repositories) *DashboardService {
	return &DashboardService{repos: repos}
}

// AgentDashboard is what a signed-in agent sees.
type AgentDashboard struct {
	Agent        domain.Agent
	Stats        domain.AgentStats
	CanPurchase  bool
	RecentOrders []domain.Order
	Catalog      domain.Catalog
	// Fallback is set when the built-in catalog is shown, as in CatalogView.
	Fallback bool
}

// OrderLine is an order annotated with the agent who placed it.
type OrderLine struct {
	domain.Order
	AgentName string
	AgentCode string
}

// AdminDashboard is the overview shown to admins.
type AdminDashboard struct {
	Stats        domain.AdminStats
	Agents       []domain.Agent
	RecentOrders []OrderLine
}

// CatalogView is the public product listing.
type CatalogView struct {
	Catalog  domain.Catalog
	Selected string
	// Fallback is set when the store holds no products and the built-in
	// catalog is served instead.
	Fallback bool
}

// AgentDashboard loads the dashboard for the agent owned by identityRef.
func (s *DashboardService) AgentDashboard(ctx context.Context, identityRef string) (AgentDashboard, error) {
	agent, err := s.repos.Agents.GetByIdentity(ctx, identityRef)
	if err != nil {
		return AgentDashboard{}, err
	}

	orders, err := s.repos.Orders.List(ctx, agent.ID, 0)
	if err != nil {
		return AgentDashboard{}, fmt.Errorf("listing orders: %w", err)
	}

	products, fallback, err := s.products(ctx)
	if err != nil {
		return AgentDashboard{}, err
	}

	return AgentDashboard{
		Agent:        agent,
		Stats:        domain.ComputeAgentStats(orders),
		CanPurchase:  agent.CanPurchase(),
		RecentOrders: head(orders, agentRecentOrders),
		Catalog:      domain.GroupByProvider(products),
		Fallback:     fallback,
	}, nil
}

// AdminDashboard loads every agent and order and summarises them.
func (s *DashboardService) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	agents, err := s.repos.Agents.List(ctx, domain.ListFilter{})
	if err != nil {
		return AdminDashboard{}, fmt.Errorf("listing agents: %w", err)
	}

	orders, err := s.repos.Orders.List(ctx, "", 0)
	if err != nil {
		return AdminDashboard{}, fmt.Errorf("listing orders: %w", err)
	}

	byID := make(map[string]domain.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}

	recent := head(orders, adminRecentOrders)
	lines := make([]OrderLine, len(recent))
	for i, o := range recent {
		a := byID[o.AgentID]
		lines[i] = OrderLine{Order: o, AgentName: a.FullName, AgentCode: a.AgentCode}
	}

	return AdminDashboard{
		Stats:        domain.ComputeAdminStats(agents, orders),
		Agents:       agents,
		RecentOrders: lines,
	}, nil
}

// Catalog returns products grouped by provider and narrowed to provider. An
// empty provider means every provider.
func (s *DashboardService) Catalog(ctx context.Context, provider string) (CatalogView, error) {
	if provider == "" {
		provider = domain.ProviderAll
	}

	products, fallback, err := s.products(ctx)
	if err != nil {
		return CatalogView{}, err
	}

	return CatalogView{
		Catalog:  domain.FilterByProvider(domain.GroupByProvider(products), provider),
		Selected: provider,
		Fallback: fallback,
	}, nil
}

// products lists stocked products, or FallbackProducts when none are.
func (s *DashboardService) products(ctx context.Context) ([]domain.Product, bool, error) {
	products, err := s.repos.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("listing products: %w", err)
	}
	if len(products) == 0 {
		return FallbackProducts(), true, nil
	}
	return products, false, nil
}

// Plans returns subscription plans, cheapest first.
func (s *DashboardService) Plans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.repos.Catalog.ListPlans(ctx)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// FallbackProducts is the catalog advertised before any products are
// stocked. It is ordered by provider, then price.
func FallbackProducts() []domain.Product {
	p := func(id, name, provider, price string) domain.Product {
		return domain.Product{ID: id, Name: name, Provider: provider, Price: decimal.RequireFromString(price), Validity: "3 months"}
	}
	return []domain.Product{
		p("at-1gb", "1GB", "AirtelTigo", "6.00"),
		p("at-2gb", "2GB", "AirtelTigo", "10.00"),
		p("at-5gb", "5GB", "AirtelTigo", "25.00"),
		p("mtn-1gb", "1GB", "MTN", "6.00"),
		p("mtn-2gb", "2GB", "MTN", "12.00"),
		p("mtn-5gb", "5GB", "MTN", "27.00"),
		p("telecel-5gb", "5GB", "Telecel", "28.00"),
		p("telecel-10gb", "10GB", "Telecel", "47.00"),
	}
}

// DefaultPlans are the subscription plans installed by the seed command.
func DefaultPlans() []domain.SubscriptionPlan {
	return []domain.SubscriptionPlan{
		{ID: "quarterly", Name: "Quarterly", DurationMonths: 3, Price: decimal.RequireFromString("50.00")},
		{ID: "biannual", Name: "Six Months", DurationMonths: 6, Price: decimal.RequireFromString("90.00")},
		{ID: "annual", Name: "Annual", DurationMonths: 12, Price: decimal.RequireFromString("160.00")},
	}
}
