package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// Compile-time check: AgentRepository implements domain.AgentRepository.
var _ domain.AgentRepository = (*AgentRepository)(nil)

// AgentRepository implements domain.AgentRepository using SQLite.
type AgentRepository struct {
	db *sql.DB
}

// NewAgentRepository wraps an opened, migrated database.
func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

const agentColumns = `id, user_id, agent_code, full_name, email, phone, status,
	subscription_plan_id, subscription_start, subscription_end, created_at, updated_at`

func (r *AgentRepository) Create(ctx context.Context, a domain.Agent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.IdentityRef, a.AgentCode, a.FullName, a.Email, a.Phone, string(a.Status),
		a.PlanID, formatNullTime(a.SubscriptionStart), formatNullTime(a.SubscriptionEnd),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		switch columnName(uniqueViolation(err)) {
		case "agent_code":
			return &domain.ConflictError{Field: "agent_code", Value: a.AgentCode}
		case "user_id":
			return &domain.ConflictError{Field: "identity", Value: a.IdentityRef}
		}
		return gatewayError("inserting agent", err)
	}
	return nil
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	return scanAgent(r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id,
	))
}

func (r *AgentRepository) GetByIdentity(ctx context.Context, identityRef string) (domain.Agent, error) {
	return scanAgent(r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE user_id = ?`, identityRef,
	))
}

func (r *AgentRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC, rowid DESC`

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := -1
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, gatewayError("listing agents", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	if err := rows.Err(); err != nil {
		return nil, gatewayError("listing agents", err)
	}
	return agents, nil
}

// UpdateStatus is a compare-and-swap on the stored status: two admins acting
// on the same agent cannot both win.
func (r *AgentRepository) UpdateStatus(ctx context.Context, a domain.Agent, expected domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE agents
		 SET status = ?, subscription_start = ?, subscription_end = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(a.Status), formatNullTime(a.SubscriptionStart), formatNullTime(a.SubscriptionEnd),
		formatTime(a.UpdatedAt), a.ID, string(expected),
	)
	if err != nil {
		return gatewayError("updating agent status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return gatewayError("checking rows affected", err)
	}
	if rows > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM agents WHERE id = ?`, a.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAgentNotFound
	}
	if err != nil {
		return gatewayError("reading agent status", err)
	}
	return &domain.StaleStatusError{AgentID: a.ID, Expected: expected}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (domain.Agent, error) {
	var a domain.Agent
	var status, createdAt, updatedAt string
	var start, end sql.NullString

	err := row.Scan(&a.ID, &a.IdentityRef, &a.AgentCode, &a.FullName, &a.Email, &a.Phone,
		&status, &a.PlanID, &start, &end, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agent{}, domain.ErrAgentNotFound
		}
		return domain.Agent{}, gatewayError("scanning agent", err)
	}

	a.Status = domain.Status(status)
	a.SubscriptionStart = parseNullTime(start)
	a.SubscriptionEnd = parseNullTime(end)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)

	return a, nil
}
