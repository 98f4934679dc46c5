package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/dataflex/internal/domain"
)

var _ domain.OrderRepository = (*OrderRepository)(nil)

// OrderRepository implements domain.OrderRepository using SQLite.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, agent_id, product_id, total_price, order_date, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.AgentID, o.ProductID, o.TotalPrice.String(), formatTime(o.OrderDate), string(o.Status),
	)
	if err != nil {
		if columnName(uniqueViolation(err)) == "id" {
			return &domain.ConflictError{Field: "order", Value: o.ID}
		}
		return gatewayError("inserting order", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		`SELECT id, agent_id, product_id, total_price, order_date, status FROM orders WHERE id = ?`, id,
	))
}

func (r *OrderRepository) List(ctx context.Context, agentID string, limit int) ([]domain.Order, error) {
	query := `SELECT id, agent_id, product_id, total_price, order_date, status FROM orders`
	var args []any

	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}

	query += ` ORDER BY order_date DESC, rowid DESC`

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, gatewayError("listing orders", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, gatewayError("listing orders", err)
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return gatewayError("updating order status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return gatewayError("checking rows affected", err)
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var total, date, status string

	if err := row.Scan(&o.ID, &o.AgentID, &o.ProductID, &total, &date, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, gatewayError("scanning order", err)
	}

	d, err := decimal.NewFromString(total)
	if err != nil {
		return domain.Order{}, gatewayError("parsing order total", err)
	}
	o.TotalPrice = d
	o.OrderDate = parseTime(date)
	o.Status = domain.OrderStatus(status)
	return o, nil
}
