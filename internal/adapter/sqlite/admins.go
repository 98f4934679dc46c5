package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/neomorfeo/dataflex/internal/domain"
)

var _ domain.AdminRepository = (*AdminRepository)(nil)

// AdminRepository stores the identities allowed into the admin surface.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, a domain.AdminUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, user_id, full_name, email) VALUES (?, ?, ?, ?)`,
		a.ID, a.IdentityRef, a.FullName, a.Email,
	)
	if err != nil {
		if columnName(uniqueViolation(err)) == "user_id" {
			return &domain.ConflictError{Field: "identity", Value: a.IdentityRef}
		}
		return gatewayError("inserting admin", err)
	}
	return nil
}

func (r *AdminRepository) GetByIdentity(ctx context.Context, identityRef string) (domain.AdminUser, error) {
	var a domain.AdminUser
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, email FROM admin_users WHERE user_id = ?`, identityRef,
	).Scan(&a.ID, &a.IdentityRef, &a.FullName, &a.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AdminUser{}, domain.ErrAdminNotFound
		}
		return domain.AdminUser{}, gatewayError("reading admin", err)
	}
	return a, nil
}
