package http

import (
	"time"

	"github.com/neomorfeo/dataflex/internal/app"
	"github.com/neomorfeo/dataflex/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// AgentResponse is the API representation of an agent.
type AgentResponse struct {
	ID                string  `json:"id" doc:"Unique identifier"`
	AgentCode         string  `json:"agent_code" doc:"Public agent code, e.g. DFA123456007"`
	FullName          string  `json:"full_name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Status            string  `json:"status" doc:"Lifecycle state" enum:"pending,active,suspended"`
	PlanID            string  `json:"plan_id" doc:"Subscription plan chosen at registration"`
	SubscriptionStart *string `json:"subscription_start" required:"false" doc:"Start of the current subscription window (ISO 8601)"`
	SubscriptionEnd   *string `json:"subscription_end" required:"false" doc:"End of the current subscription window (ISO 8601)"`
	CreatedAt         string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt         string  `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toAgentResponse(a domain.Agent) AgentResponse {
	return AgentResponse{
		ID:                a.ID,
		AgentCode:         a.AgentCode,
		FullName:          a.FullName,
		Email:             a.Email,
		Phone:             a.Phone,
		Status:            string(a.Status),
		PlanID:            a.PlanID,
		SubscriptionStart: formatOptionalTime(a.SubscriptionStart),
		SubscriptionEnd:   formatOptionalTime(a.SubscriptionEnd),
		CreatedAt:         formatTime(a.CreatedAt),
		UpdatedAt:         formatTime(a.UpdatedAt),
	}
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID         string `json:"id"`
	AgentID    string `json:"agent_id"`
	ProductID  string `json:"product_id"`
	TotalPrice string `json:"total_price" doc:"Decimal amount with two places"`
	OrderDate  string `json:"order_date" doc:"Placement timestamp (ISO 8601)"`
	Status     string `json:"status" enum:"pending,processing,fulfilled,cancelled"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:         o.ID,
		AgentID:    o.AgentID,
		ProductID:  o.ProductID,
		TotalPrice: o.TotalPrice.StringFixed(2),
		OrderDate:  formatTime(o.OrderDate),
		Status:     string(o.Status),
	}
}

// OrderLineResponse is an order with the agent who placed it.
type OrderLineResponse struct {
	OrderResponse
	AgentName string `json:"agent_name"`
	AgentCode string `json:"agent_code"`
}

// ProductResponse is a purchasable bundle.
type ProductResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Price    string `json:"price" doc:"Decimal amount with two places"`
	Validity string `json:"validity"`
	HotDeal  bool   `json:"hot_deal" doc:"Priced at 10 or less"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Provider: p.Provider,
		Price:    p.Price.StringFixed(2),
		Validity: p.Validity,
		HotDeal:  p.IsHotDeal(),
	}
}

// ProviderGroup is one provider's bucket of a catalog.
type ProviderGroup struct {
	Provider string            `json:"provider"`
	Products []ProductResponse `json:"products"`
}

func toProviderGroups(c domain.Catalog) []ProviderGroup {
	groups := make([]ProviderGroup, 0, c.Len())
	for _, provider := range c.Providers() {
		bucket, _ := c.Bucket(provider)
		products := make([]ProductResponse, len(bucket))
		for i, p := range bucket {
			products[i] = toProductResponse(p)
		}
		groups = append(groups, ProviderGroup{Provider: provider, Products: products})
	}
	return groups
}

// PlanResponse is a subscription plan.
type PlanResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DurationMonths int    `json:"duration_months"`
	Price          string `json:"price" doc:"Decimal amount with two places"`
}

func toPlanResponse(p domain.SubscriptionPlan) PlanResponse {
	return PlanResponse{
		ID:             p.ID,
		Name:           p.Name,
		DurationMonths: p.DurationMonths,
		Price:          p.Price.StringFixed(2),
	}
}

// AgentStatsResponse summarises an agent's orders.
type AgentStatsResponse struct {
	TotalOrders   int    `json:"total_orders"`
	TotalEarnings string `json:"total_earnings"`
}

// AdminStatsResponse summarises the marketplace.
type AdminStatsResponse struct {
	TotalAgents   int    `json:"total_agents"`
	ActiveAgents  int    `json:"active_agents"`
	PendingAgents int    `json:"pending_agents"`
	TotalOrders   int    `json:"total_orders"`
	TotalRevenue  string `json:"total_revenue"`
}

// AgentDashboardResponse is the agent view model.
type AgentDashboardResponse struct {
	Agent        AgentResponse      `json:"agent"`
	Stats        AgentStatsResponse `json:"stats"`
	CanPurchase  bool               `json:"can_purchase"`
	RecentOrders []OrderResponse    `json:"recent_orders"`
	Catalog      []ProviderGroup    `json:"catalog"`
	Fallback     bool               `json:"fallback" doc:"Set when the built-in catalog is shown"`
}

func toAgentDashboardResponse(d app.AgentDashboard) AgentDashboardResponse {
	orders := make([]OrderResponse, len(d.RecentOrders))
	for i, o := range d.RecentOrders {
		orders[i] = toOrderResponse(o)
	}
	return AgentDashboardResponse{
		Agent: toAgentResponse(d.Agent),
		Stats: AgentStatsResponse{
			TotalOrders:   d.Stats.TotalOrders,
			TotalEarnings: d.Stats.TotalEarnings.StringFixed(2),
		},
		CanPurchase:  d.CanPurchase,
		RecentOrders: orders,
		Catalog:      toProviderGroups(d.Catalog),
		Fallback:     d.Fallback,
	}
}

// AdminDashboardResponse is the admin view model.
type AdminDashboardResponse struct {
	Stats        AdminStatsResponse  `json:"stats"`
	Agents       []AgentResponse     `json:"agents"`
	RecentOrders []OrderLineResponse `json:"recent_orders"`
}

func toAdminDashboardResponse(d app.AdminDashboard) AdminDashboardResponse {
	agents := make([]AgentResponse, len(d.Agents))
	for i, a := range d.Agents {
		agents[i] = toAgentResponse(a)
	}
	lines := make([]OrderLineResponse, len(d.RecentOrders))
	for i, l := range d.RecentOrders {
		lines[i] = OrderLineResponse{OrderResponse: toOrderResponse(l.Order), AgentName: l.AgentName, AgentCode: l.AgentCode}
	}
	return AdminDashboardResponse{
		Stats: AdminStatsResponse{
			TotalAgents:   d.Stats.TotalAgents,
			ActiveAgents:  d.Stats.ActiveAgents,
			PendingAgents: d.Stats.PendingAgents,
			TotalOrders:   d.Stats.TotalOrders,
			TotalRevenue:  d.Stats.TotalRevenue.StringFixed(2),
		},
		Agents:       agents,
		RecentOrders: lines,
	}
}

// SessionResponse is returned by the login operations.
type SessionResponse struct {
	Token     string           `json:"token" doc:"Bearer token for the Authorization header"`
	ExpiresAt string           `json:"expires_at"`
	Identity  IdentityResponse `json:"identity"`
}

// IdentityResponse is an authentication principal.
type IdentityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token,
		ExpiresAt: formatTime(s.ExpiresAt),
		Identity:  IdentityResponse{ID: s.Identity.ID, Email: s.Identity.Email},
	}
}

// MeResponse describes the caller.
type MeResponse struct {
	IdentityResponse
	Role  string         `json:"role" enum:"none,agent,admin"`
	Agent *AgentResponse `json:"agent,omitempty"`
	Admin *AdminResponse `json:"admin,omitempty"`
}

// AdminResponse is an admin user.
type AdminResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func toMeResponse(p app.Principal) MeResponse {
	me := MeResponse{
		IdentityResponse: IdentityResponse{ID: p.Identity.ID, Email: p.Identity.Email},
		Role:             string(p.Role),
	}
	if p.Agent != nil {
		a := toAgentResponse(*p.Agent)
		me.Agent = &a
	}
	if p.Admin != nil {
		me.Admin = &AdminResponse{ID: p.Admin.ID, FullName: p.Admin.FullName, Email: p.Admin.Email}
	}
	return me
}
