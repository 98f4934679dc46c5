package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/dataflex/internal/app"
	"github.com/neomorfeo/dataflex/internal/domain"
)

// Services are the application services the API exposes.
type Services struct {
	Agents     *app.AgentService
	Dashboards *app.DashboardService
	Auth       *app.AuthService
}

// --- Register Agent ---

type RegisterAgentInput struct {
	Body struct {
		FullName        string `json:"full_name" required:"false" maxLength:"255"`
		Email           string `json:"email" required:"false" maxLength:"255"`
		Phone           string `json:"phone" required:"false" maxLength:"32"`
		PlanID          string `json:"plan_id" required:"false" doc:"Subscription plan ID, see GET /api/v1/plans"`
		Password        string `json:"password" required:"false"`
		ConfirmPassword string `json:"confirm_password" required:"false"`
		AgreeToTerms    bool   `json:"agree_to_terms" required:"false"`
	}
}

type AgentOutput struct {
	Body AgentResponse
}

// --- Get Agent ---

type GetAgentInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token of an admin"`
	ID            string `path:"id" doc:"Agent ID"`
}

// --- List Agents ---

type ListAgentsInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token of an admin"`
	Status        string `query:"status" required:"false" enum:"pending,active,suspended" doc:"Filter by status"`
	Limit         int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset        int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListAgentsOutput struct {
	Body []AgentResponse
}

// --- Transition ---

type TransitionInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token of an admin"`
	ID            string `path:"id" doc:"Agent ID"`
	Body          struct {
		Status string `json:"status" doc:"Target status: pending, active or suspended"`
	}
}

// --- Sessions ---

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"1"`
		Password string `json:"password" minLength:"1"`
	}
}

type SessionOutput struct {
	Body SessionResponse
}

type AuthInput struct {
	Authorization string `header:"Authorization" doc:"Bearer session token"`
}

type MeOutput struct {
	Body MeResponse
}

// --- Dashboards ---

type AdminDashboardOutput struct {
	Body AdminDashboardResponse
}

type AgentDashboardOutput struct {
	Body AgentDashboardResponse
}

// --- Orders ---

type PlaceOrderInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token of an active agent"`
	Body          struct {
		ProductID string `json:"product_id" minLength:"1"`
	}
}

type UpdateOrderInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token of an admin"`
	ID            string `path:"id" doc:"Order ID"`
	Body          struct {
		Status string `json:"status" doc:"pending, processing, fulfilled or cancelled"`
	}
}

type OrderOutput struct {
	Body OrderResponse
}

// --- Catalog ---

type ListProductsInput struct {
	Provider string `query:"provider" required:"false" default:"all" doc:"Provider name, or all"`
}

type ListProductsOutput struct {
	Body struct {
		Selected  string          `json:"selected"`
		Fallback  bool            `json:"fallback" doc:"Set when the built-in catalog is served"`
		Providers []ProviderGroup `json:"providers"`
	}
}

type ListPlansOutput struct {
	Body []PlanResponse
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerAgents(api, svc)
	registerSessions(api, svc)
	registerDashboards(api, svc)
	registerCatalog(api, svc)
}

func registerAgents(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-agent",
		Method:        http.MethodPost,
		Path:          "/api/v1/agents",
		Summary:       "Register a new agent",
		Description:   "Creates the sign-in identity and a pending agent. Every invalid field is reported.",
		Tags:          []string{"Agents"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterAgentInput) (*AgentOutput, error) {
		b := input.Body
		agent, err := svc.Agents.Register(ctx, app.Registration{
			AgentDetails: domain.AgentDetails{FullName: b.FullName, Email: b.Email, Phone: b.Phone, PlanID: b.PlanID},
			Credentials:  domain.Credentials{Password: b.Password, ConfirmPassword: b.ConfirmPassword, AgreeToTerms: b.AgreeToTerms},
		})
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &AgentOutput{Body: toAgentResponse(agent)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agent",
		Method:      http.MethodGet,
		Path:        "/api/v1/agents/{id}",
		Summary:     "Get an agent by ID",
		Tags:        []string{"Agents"},
	}, func(ctx context.Context, input *GetAgentInput) (*AgentOutput, error) {
		if _, err := svc.Auth.RequireAdmin(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}
		agent, err := svc.Agents.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &AgentOutput{Body: toAgentResponse(agent)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-agents",
		Method:      http.MethodGet,
		Path:        "/api/v1/agents",
		Summary:     "List agents, newest first",
		Tags:        []string{"Agents"},
	}, func(ctx context.Context, input *ListAgentsInput) (*ListAgentsOutput, error) {
		if _, err := svc.Auth.RequireAdmin(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}

		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		agents, err := svc.Agents.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}

		resp := make([]AgentResponse, len(agents))
		for i, a := range agents {
			resp[i] = toAgentResponse(a)
		}
		return &ListAgentsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-agent",
		Method:      http.MethodPost,
		Path:        "/api/v1/agents/{id}/status",
		Summary:     "Move an agent to another status",
		Description: "Activation opens a subscription window. Requesting the current status is a no-op.",
		Tags:        []string{"Agents"},
	}, func(ctx context.Context, input *TransitionInput) (*AgentOutput, error) {
		if _, err := svc.Auth.RequireAdmin(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}
		agent, err := svc.Agents.Transition(ctx, input.ID, domain.Status(input.Body.Status))
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &AgentOutput{Body: toAgentResponse(agent)}, nil
	})
}

func registerSessions(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
		sess, err := svc.Auth.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SessionOutput{Body: toSessionResponse(sess)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/logout",
		Summary:       "Sign out and revoke the token",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *AuthInput) (*struct{}, error) {
		if err := svc.Auth.Logout(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Describe the signed-in identity",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *AuthInput) (*MeOutput, error) {
		p, err := svc.Auth.Authenticate(ctx, input.Authorization)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &MeOutput{Body: toMeResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/login",
		Summary:     "Sign in as an admin",
		Description: "Identities without an admin record are signed out again and refused.",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
		sess, err := svc.Auth.AdminLogin(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &SessionOutput{Body: toSessionResponse(sess)}, nil
	})
}

func registerDashboards(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-dashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/dashboard",
		Summary:     "Marketplace overview",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *AuthInput) (*AdminDashboardOutput, error) {
		if _, err := svc.Auth.RequireAdmin(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}
		d, err := svc.Dashboards.AdminDashboard(ctx)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &AdminDashboardOutput{Body: toAdminDashboardResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-order",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/orders/{id}",
		Summary:     "Update an order's status",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *UpdateOrderInput) (*OrderOutput, error) {
		if _, err := svc.Auth.RequireAdmin(ctx, input.Authorization); err != nil {
			return nil, toHumaError(ctx, err)
		}
		order, err := svc.Agents.UpdateOrderStatus(ctx, input.ID, domain.OrderStatus(input.Body.Status))
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "agent-dashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/agent/dashboard",
		Summary:     "The signed-in agent's overview",
		Tags:        []string{"Agent"},
	}, func(ctx context.Context, input *AuthInput) (*AgentDashboardOutput, error) {
		p, err := svc.Auth.RequireAgent(ctx, input.Authorization)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		d, err := svc.Dashboards.AgentDashboard(ctx, p.Identity.ID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &AgentDashboardOutput{Body: toAgentDashboardResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "place-order",
		Method:        http.MethodPost,
		Path:          "/api/v1/orders",
		Summary:       "Buy a bundle",
		Description:   "Only active agents may purchase.",
		Tags:          []string{"Agent"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *PlaceOrderInput) (*OrderOutput, error) {
		p, err := svc.Auth.RequireAgent(ctx, input.Authorization)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		order, err := svc.Agents.PlaceOrder(ctx, p.Identity.ID, input.Body.ProductID)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})
}

func registerCatalog(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "Bundles grouped by provider",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *ListProductsInput) (*ListProductsOutput, error) {
		view, err := svc.Dashboards.Catalog(ctx, input.Provider)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		out := &ListProductsOutput{}
		out.Body.Selected = view.Selected
		out.Body.Fallback = view.Fallback
		out.Body.Providers = toProviderGroups(view.Catalog)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans",
		Summary:     "Subscription plans, cheapest first",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
		plans, err := svc.Dashboards.Plans(ctx)
		if err != nil {
			return nil, toHumaError(ctx, err)
		}
		resp := make([]PlanResponse, len(plans))
		for i, p := range plans {
			resp[i] = toPlanResponse(p)
		}
		return &ListPlansOutput{Body: resp}, nil
	})
}
