package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// CatalogWriter installs reference data.
type CatalogWriter interface {
	UpsertPlan(ctx context.Context, plan domain.SubscriptionPlan) error
	UpsertProduct(ctx context.Context, product domain.Product) error
}

// Seed installs DefaultPlans and FallbackProducts. Running it again
// overwrites the same rows.
func Seed(ctx context.Context, w CatalogWriter) (plans, products int, err error) {
	for _, p := range DefaultPlans() {
		if err := w.UpsertPlan(ctx, p); err != nil {
			return plans, products, fmt.Errorf("seeding plan %q: %w", p.ID, err)
		}
		plans++
	}
	for _, p := range FallbackProducts() {
		if err := w.UpsertProduct(ctx, p); err != nil {
			return plans, products, fmt.Errorf("seeding product %q: %w", p.ID, err)
		}
		products++
	}
	return plans, products, nil
}
