package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/dataflex/internal/domain"
)

var _ domain.CatalogRepository = (*CatalogRepository)(nil)

// CatalogRepository reads and seeds subscription plans and products.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, duration_months, price FROM subscription_plans
		 ORDER BY CAST(price AS REAL), id`,
	)
	if err != nil {
		return nil, gatewayError("listing plans", err)
	}
	defer rows.Close()

	var plans []domain.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, gatewayError("listing plans", err)
	}
	return plans, nil
}

func (r *CatalogRepository) GetPlan(ctx context.Context, id string) (domain.SubscriptionPlan, error) {
	return scanPlan(r.db.QueryRowContext(ctx,
		`SELECT id, name, duration_months, price FROM subscription_plans WHERE id = ?`, id,
	))
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, provider, price, validity FROM products
		 ORDER BY provider, CAST(price AS REAL), id`,
	)
	if err != nil {
		return nil, gatewayError("listing products", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, gatewayError("listing products", err)
	}
	return products, nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return scanProduct(r.db.QueryRowContext(ctx,
		`SELECT id, name, provider, price, validity FROM products WHERE id = ?`, id,
	))
}

// UpsertPlan inserts a plan or overwrites the one with the same ID.
func (r *CatalogRepository) UpsertPlan(ctx context.Context, p domain.SubscriptionPlan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscription_plans (id, name, duration_months, price) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, duration_months = excluded.duration_months, price = excluded.price`,
		p.ID, p.Name, p.DurationMonths, p.Price.String(),
	)
	if err != nil {
		return gatewayError("upserting plan", err)
	}
	return nil
}

// UpsertProduct inserts a product or overwrites the one with the same ID.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, provider, price, validity) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, provider = excluded.provider,
		   price = excluded.price, validity = excluded.validity`,
		p.ID, p.Name, p.Provider, p.Price.String(), p.Validity,
	)
	if err != nil {
		return gatewayError("upserting product", err)
	}
	return nil
}

func scanPlan(row rowScanner) (domain.SubscriptionPlan, error) {
	var p domain.SubscriptionPlan
	var price string

	if err := row.Scan(&p.ID, &p.Name, &p.DurationMonths, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SubscriptionPlan{}, domain.ErrPlanNotFound
		}
		return domain.SubscriptionPlan{}, gatewayError("scanning plan", err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.SubscriptionPlan{}, gatewayError("parsing plan price", err)
	}
	p.Price = d
	return p, nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var price string

	if err := row.Scan(&p.ID, &p.Name, &p.Provider, &price, &p.Validity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, gatewayError("scanning product", err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, gatewayError("parsing product price", err)
	}
	p.Price = d
	return p, nil
}
