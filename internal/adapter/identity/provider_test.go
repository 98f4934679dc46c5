package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/neomorfeo/dataflex/internal/adapter/identity"
	"github.com/neomorfeo/dataflex/internal/adapter/sqlite"
	"github.com/neomorfeo/dataflex/internal/domain"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newProvider(t *testing.T) (*identity.Provider, *clock) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	p, err := identity.New(sqlite.NewIdentityRepository(db), identity.Config{
		Secret:     []byte("test-secret"),
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, identity.WithClock(c.now))
	require.NoError(t, err)
	return p, c
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := identity.New(nil, identity.Config{})
	assert.Error(t, err)
}

func TestSignUpSignIn(t *testing.T) {
	p, c := newProvider(t)
	ctx := context.Background()

	id, err := p.SignUp(ctx, " ama@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ama@example.com", id.Email)
	assert.NotEmpty(t, id.ID)

	sess, err := p.SignIn(ctx, "AMA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id.ID, sess.Identity.ID)
	assert.Equal(t, c.t.Add(time.Hour), sess.ExpiresAt)

	got, err := p.CurrentIdentity(ctx, "Bearer "+sess.Token)
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "ama@example.com", "other12")
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "email", cErr.Field)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "ama@example.com", "wrong!")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignOut_RevokesToken(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)
	sess, err := p.SignIn(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, sess.Token))
	require.NoError(t, p.SignOut(ctx, sess.Token))

	_, err = p.CurrentIdentity(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// A fresh sign-in is unaffected.
	again, err := p.SignIn(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)
	_, err = p.CurrentIdentity(ctx, again.Token)
	assert.NoError(t, err)
}

func TestCurrentIdentity_Expired(t *testing.T) {
	p, c := newProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)
	sess, err := p.SignIn(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Hour)

	_, err = p.CurrentIdentity(ctx, sess.Token)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated), "got %v", err)
}

func TestCurrentIdentity_Garbage(t *testing.T) {
	p, _ := newProvider(t)

	for _, token := range []string{"", "Bearer ", "not.a.jwt"} {
		_, err := p.CurrentIdentity(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, token)
	}
}

func TestCurrentIdentity_UnknownSubject(t *testing.T) {
	p, _ := newProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)
	sess, err := p.SignIn(ctx, "ama@example.com", "secret1")
	require.NoError(t, err)

	other, _ := newProvider(t)
	_, err = other.CurrentIdentity(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
