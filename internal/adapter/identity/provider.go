// Package identity signs agents and admins in with local email/password
// accounts. Sessions are HS256 JWTs; signing out records the token's ID in a
// revocation list so it is refused until it would have expired anyway.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
	"github.com/neomorfeo/dataflex/internal/domain"
)

var _ domain.IdentityProvider = (*Provider)(nil)

const issuer = "dataflex"

// Store persists identities and revoked sessions.
type Store interface {
	CreateIdentity(ctx context.Context, id domain.Identity, hash []byte) error
	IdentityByEmail(ctx context.Context, email string) (sqlite.StoredIdentity, error)
	IdentityByID(ctx context.Context, id string) (sqlite.StoredIdentity, error)
	RevokeSession(ctx context.Context, sessionID string, expiresAt, now time.Time) error
	SessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Config holds the signing and hashing parameters.
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	BcryptCost int
}

// Provider implements domain.IdentityProvider.
type Provider struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New returns a Provider. A zero SessionTTL defaults to 24h and a zero
// BcryptCost to bcrypt.DefaultCost.
func New(store Store, cfg Config, opts ...Option) (*Provider, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("identity: signing secret is empty")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	p := &Provider{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hashing password: %w", err)
	}

	id := domain.Identity{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(email),
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.CreateIdentity(ctx, id, hash); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	stored, err := p.store.IdentityByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte(password)); err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	now := p.now()
	expires := now.Add(p.cfg.SessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Email: stored.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   stored.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(p.cfg.Secret)
	if err != nil {
		return domain.Session{}, fmt.Errorf("signing token: %w", err)
	}

	return domain.Session{
		Token:     signed,
		Identity:  stored.Identity,
		ExpiresAt: expires.UTC(),
	}, nil
}

// SignOut revokes token. Signing out an already revoked token succeeds.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}
	return p.store.RevokeSession(ctx, c.ID, c.ExpiresAt.Time, p.now())
}

func (p *Provider) CurrentIdentity(ctx context.Context, token string) (domain.Identity, error) {
	c, err := p.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	revoked, err := p.store.SessionRevoked(ctx, c.ID)
	if err != nil {
		return domain.Identity{}, err
	}
	if revoked {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	stored, err := p.store.IdentityByID(ctx, c.Subject)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return stored.Identity, nil
}

func (p *Provider) parse(token string) (*claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return p.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" || c.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return c, nil
}
