package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// StoredIdentity is an identity row together with its password hash.
type StoredIdentity struct {
	domain.Identity
	PasswordHash []byte
}

// IdentityRepository backs the identity adapter: credentials and revoked
// sessions.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) CreateIdentity(ctx context.Context, id domain.Identity, hash []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id.ID, id.Email, string(hash), formatTime(id.CreatedAt),
	)
	if err != nil {
		if columnName(uniqueViolation(err)) == "email" {
			return &domain.ConflictError{Field: "email", Value: id.Email}
		}
		return gatewayError("inserting identity", err)
	}
	return nil
}

// IdentityByEmail matches email case-insensitively.
func (r *IdentityRepository) IdentityByEmail(ctx context.Context, email string) (StoredIdentity, error) {
	return scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE email = ?`, email,
	))
}

func (r *IdentityRepository) IdentityByID(ctx context.Context, id string) (StoredIdentity, error) {
	return scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE id = ?`, id,
	))
}

// RevokeSession records sessionID as signed out. Revoking twice is not an
// error.
func (r *IdentityRepository) RevokeSession(ctx context.Context, sessionID string, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revoked_sessions (session_id, expires_at, revoked_at) VALUES (?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, formatTime(expiresAt), formatTime(now),
	)
	if err != nil {
		return gatewayError("revoking session", err)
	}
	return nil
}

func (r *IdentityRepository) SessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_sessions WHERE session_id = ?`, sessionID,
	).Scan(&n)
	if err != nil {
		return false, gatewayError("checking session", err)
	}
	return n > 0, nil
}

// PurgeRevokedSessions drops revocations whose tokens have expired anyway.
func (r *IdentityRepository) PurgeRevokedSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM revoked_sessions WHERE expires_at < ?`, formatTime(now),
	)
	if err != nil {
		return 0, gatewayError("purging sessions", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, gatewayError("checking rows affected", err)
	}
	return n, nil
}

func scanIdentity(row rowScanner) (StoredIdentity, error) {
	var s StoredIdentity
	var hash, createdAt string

	if err := row.Scan(&s.ID, &s.Email, &hash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredIdentity{}, domain.ErrIdentityNotFound
		}
		return StoredIdentity{}, gatewayError("scanning identity", err)
	}
	s.PasswordHash = []byte(hash)
	s.CreatedAt = parseTime(createdAt)
	return s, nil
}
