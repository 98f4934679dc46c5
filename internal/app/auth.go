package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/dataflex/internal/domain"
)

// Role is what a signed-in identity is allowed to act as.
type Role string

const (
	RoleNone  Role = "none"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Principal is the identity behind a session token and the records it owns.
type Principal struct {
	Identity domain.Identity
	Role     Role
	Agent    *domain.Agent
	Admin    *domain.AdminUser
}

// AuthService resolves session tokens into principals.
type AuthService struct {
	identities domain.IdentityProvider
	repos      Repositories
	logger     *slog.Logger
}

func NewAuthService(identities domain.IdentityProvider, repos Repositories, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{identities: identities, repos: repos, logger: logger}
}

// Login signs an identity in.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	return s.identities.SignIn(ctx, email, password)
}

// Logout revokes token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.identities.SignOut(ctx, token)
}

// AdminLogin signs in and requires an admin record. A non-admin session is
// revoked before ErrAccessDenied is returned.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (domain.Session, error) {
	sess, err := s.identities.SignIn(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}

	_, err = s.repos.Admins.GetByIdentity(ctx, sess.Identity.ID)
	if errors.Is(err, domain.ErrAdminNotFound) {
		if err := s.identities.SignOut(ctx, sess.Token); err != nil {
			s.logger.ErrorContext(ctx, "revoking non-admin session", "error", err)
		}
		return domain.Session{}, domain.ErrAccessDenied
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("looking up admin: %w", err)
	}
	return sess, nil
}

// Authenticate resolves token into a Principal. Admin takes precedence when
// an identity owns both records.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	identity, err := s.identities.CurrentIdentity(ctx, token)
	if err != nil {
		return Principal{}, err
	}

	p := Principal{Identity: identity, Role: RoleNone}

	admin, err := s.repos.Admins.GetByIdentity(ctx, identity.ID)
	switch {
	case err == nil:
		p.Admin = &admin
		p.Role = RoleAdmin
	case !errors.Is(err, domain.ErrAdminNotFound):
		return Principal{}, fmt.Errorf("looking up admin: %w", err)
	}

	agent, err := s.repos.Agents.GetByIdentity(ctx, identity.ID)
	switch {
	case err == nil:
		p.Agent = &agent
		if p.Role == RoleNone {
			p.Role = RoleAgent
		}
	case !errors.Is(err, domain.ErrAgentNotFound):
		return Principal{}, fmt.Errorf("looking up agent: %w", err)
	}

	return p, nil
}

// RequireAdmin authenticates token and fails with ErrAccessDenied unless it
// belongs to an admin.
func (s *AuthService) RequireAdmin(ctx context.Context, token string) (Principal, error) {
	p, err := s.Authenticate(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	if p.Admin == nil {
		return Principal{}, domain.ErrAccessDenied
	}
	return p, nil
}

// RequireAgent authenticates token and fails with ErrAccessDenied unless it
// belongs to an agent.
func (s *AuthService) RequireAgent(ctx context.Context, token string) (Principal, error) {
	p, err := s.Authenticate(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	if p.Agent == nil {
		return Principal{}, domain.ErrAccessDenied
	}
	return p, nil
}

// CreateAdmin signs up a new identity and marks it as an admin.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, fullName string) (domain.AdminUser, error) {
	switch {
	case len(password) < 6:
		return domain.AdminUser{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "password", Message: "Password must be at least 6 characters"},
		}}
	case len(password) > domain.MaxPasswordBytes:
		return domain.AdminUser{}, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "password", Message: domain.PasswordTooLong},
		}}
	}

	identity, err := s.identities.SignUp(ctx, email, password)
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("creating identity: %w", err)
	}

	admin := domain.AdminUser{
		ID:          newID(),
		IdentityRef: identity.ID,
		FullName:    fullName,
		Email:       identity.Email,
	}
	if err := s.repos.Admins.Create(ctx, admin); err != nil {
		return domain.AdminUser{}, fmt.Errorf("creating admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin created", "admin_id", admin.ID, "email", admin.Email)
	return admin, nil
}
