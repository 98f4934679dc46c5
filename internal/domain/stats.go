package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// ProviderAll selects every provider in FilterByProvider.
const ProviderAll = "all"

// AgentStats summarises one agent's orders.
type AgentStats struct {
	TotalOrders   int
	TotalEarnings decimal.Decimal
}

// AdminStats summarises the whole marketplace.
type AdminStats struct {
	TotalAgents   int
	ActiveAgents  int
	PendingAgents int
	TotalOrders   int
	TotalRevenue  decimal.Decimal
}

// ComputeAgentStats counts orders and sums their totals exactly.
func ComputeAgentStats(orders []Order) AgentStats {
	return AgentStats{
		TotalOrders:   len(orders),
		TotalEarnings: sumTotals(orders),
	}
}

// ComputeAdminStats counts agents by status and sums order revenue. The
// result does not depend on the order of either input.
func ComputeAdminStats(agents []Agent, orders []Order) AdminStats {
	stats := AdminStats{
		TotalAgents:  len(agents),
		TotalOrders:  len(orders),
		TotalRevenue: sumTotals(orders),
	}
	for _, a := range agents {
		switch a.Status {
		case StatusActive:
			stats.ActiveAgents++
		case StatusPending:
			stats.PendingAgents++
		}
	}
	return stats
}

func sumTotals(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalPrice)
	}
	return total
}

// Catalog is products bucketed by provider. Providers keep the order in which
// they were first seen and each bucket keeps its products' input order.
type Catalog struct {
	providers []string
	buckets   map[string][]Product
}

// GroupByProvider buckets products by provider, preserving input order.
func GroupByProvider(products []Product) Catalog {
	c := Catalog{buckets: make(map[string][]Product)}
	for _, p := range products {
		if _, seen := c.buckets[p.Provider]; !seen {
			c.providers = append(c.providers, p.Provider)
		}
		c.buckets[p.Provider] = append(c.buckets[p.Provider], p)
	}
	return c
}

// FilterByProvider narrows the catalog to one provider. ProviderAll returns
// a copy of the whole catalog. An unknown provider yields a single empty
// bucket, never a missing one. The result shares no storage with c.
func FilterByProvider(c Catalog, selected string) Catalog {
	if selected == ProviderAll {
		return c.clone()
	}
	bucket := slices.Clone(c.buckets[selected])
	if bucket == nil {
		bucket = []Product{}
	}
	return Catalog{
		providers: []string{selected},
		buckets:   map[string][]Product{selected: bucket},
	}
}

// Providers returns the provider keys in first-seen order.
func (c Catalog) Providers() []string {
	return slices.Clone(c.providers)
}

// Bucket returns a copy of the products offered by provider and whether the
// provider is a key of the catalog.
func (c Catalog) Bucket(provider string) ([]Product, bool) {
	b, ok := c.buckets[provider]
	return slices.Clone(b), ok
}

func (c Catalog) clone() Catalog {
	buckets := maps.Clone(c.buckets)
	for p, b := range buckets {
		buckets[p] = slices.Clone(b)
	}
	return Catalog{providers: slices.Clone(c.providers), buckets: buckets}
}

// Len returns the number of providers.
func (c Catalog) Len() int { return len(c.providers) }

// Flatten concatenates every bucket in provider order.
func (c Catalog) Flatten() []Product {
	var out []Product
	for _, p := range c.providers {
		out = append(out, c.buckets[p]...)
	}
	return out
}
