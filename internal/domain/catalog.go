package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan is read-only reference data chosen at registration.
type SubscriptionPlan struct {
	ID             string
	Name           string
	DurationMonths int
	Price          decimal.Decimal
}

// hotDealCeiling is the highest price still advertised as a hot deal.
var hotDealCeiling = decimal.NewFromInt(10)

// Product is a purchasable data bundle offered under a provider.
type Product struct {
	ID       string
	Name     string
	Provider string
	Price    decimal.Decimal
	Validity string
}

// IsHotDeal reports whether the bundle is cheap enough to be highlighted.
func (p Product) IsHotDeal() bool {
	return p.Price.LessThanOrEqual(hotDealCeiling)
}

// OrderStatus is free-form in storage; these are the values the service writes.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderFulfilled  OrderStatus = "fulfilled"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the statuses above.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderFulfilled, OrderCancelled:
		return true
	}
	return false
}

// Order is a single bundle purchase by an agent. Only Status changes after
// creation.
type Order struct {
	ID         string
	AgentID    string
	ProductID  string
	TotalPrice decimal.Decimal
	OrderDate  time.Time
	Status     OrderStatus
}

// NewOrder prices an order for product at the product's current price.
func NewOrder(id string, agent Agent, product Product, now time.Time) (Order, error) {
	if !agent.CanPurchase() {
		return Order{}, ErrAgentInactive
	}
	return Order{
		ID:         id,
		AgentID:    agent.ID,
		ProductID:  product.ID,
		TotalPrice: product.Price,
		OrderDate:  now.UTC(),
		Status:     OrderPending,
	}, nil
}

// AdminUser marks an identity as privileged.
type AdminUser struct {
	ID          string
	IdentityRef string
	FullName    string
	Email       string
}

// Identity is an authentication principal, distinct from the Agent or
// AdminUser that references it.
type Identity struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session is a signed-in identity and the bearer token that proves it.
type Session struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}
