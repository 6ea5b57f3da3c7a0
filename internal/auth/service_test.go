package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	users  map[string]*User
	nextID int64
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User), nextID: 1}
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) FindUserByID(_ context.Context, id int64) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, passwordHash string, name *string) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &User{
		ID:           f.nextID,
		Email:        email,
		Name:         name,
		AuthMethod:   "email",
		Role:         "user",
		Active:       true,
		PasswordHash: &passwordHash,
	}
	f.nextID++
	f.users[email] = u
	return u, nil
}

func (f *fakeUserStore) UpsertGoogleUser(_ context.Context, profile GoogleProfile) (*User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[profile.Email]; ok {
		u.AuthMethod = "google"
		return u, nil
	}
	u := &User{
		ID:         f.nextID,
		Email:      profile.Email,
		Name:       profile.Name,
		PhotoURL:   profile.PhotoURL,
		AuthMethod: "google",
		Role:       "user",
		Active:     true,
	}
	f.nextID++
	f.users[profile.Email] = u
	return u, nil
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	svc, err := NewService(Config{}, store, tokens, nil)
	require.NoError(t, err)
	return svc
}

func TestNewService_Requirements(t *testing.T) {
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = NewService(Config{}, nil, tokens, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user store is required")

	_, err = NewService(Config{}, newFakeUserStore(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token service is required")
}

func TestService_Register(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	name := "Ana"
	authed, err := svc.Register(ctx, "ana@example.com", "s3cret", &name)
	require.NoError(t, err)
	require.NotNil(t, authed.User)
	assert.NotEmpty(t, authed.Token)
	assert.Equal(t, "ana@example.com", authed.User.Email)
	assert.Equal(t, "user", authed.User.Role)

	// Password is stored hashed, never verbatim.
	require.NotNil(t, authed.User.PasswordHash)
	assert.NotEqual(t, "s3cret", *authed.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*authed.User.PasswordHash), []byte("s3cret")))

	// The issued token carries the identity.
	ident, err := svc.tokens.Verify(authed.Token)
	require.NoError(t, err)
	assert.Equal(t, authed.User.ID, ident.UserID)
}

func TestService_Register_EmailTaken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana@example.com", "s3cret", nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ana@example.com", "other", nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana@example.com", "s3cret", nil)
	require.NoError(t, err)

	authed, err := svc.Login(ctx, "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, authed.Token)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "ana@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost@example.com", "s3cret")
		// Unknown email and wrong password are indistinguishable.
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		store.users["ana@example.com"].Active = false
		_, err := svc.Login(ctx, "ana@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInactiveUser)
		store.users["ana@example.com"].Active = true
	})

	t.Run("google-only account", func(t *testing.T) {
		_, err := store.UpsertGoogleUser(ctx, GoogleProfile{GoogleID: "g1", Email: "g@example.com"})
		require.NoError(t, err)
		_, err = svc.Login(ctx, "g@example.com", "anything")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Google_NotConfigured(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())

	assert.False(t, svc.GoogleConfigured())

	_, err := svc.GoogleAuthURL()
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)

	_, err = svc.GoogleExchange(context.Background(), "some-code")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}

func TestService_GoogleAuthURL(t *testing.T) {
	store := newFakeUserStore()
	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	svc, err := NewService(Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		GoogleRedirectURL:  "http://localhost:8002/api/auth/google/callback",
	}, store, tokens, nil)
	require.NoError(t, err)

	assert.True(t, svc.GoogleConfigured())

	url, err := svc.GoogleAuthURL()
	require.NoError(t, err)
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "client-id")
	assert.Contains(t, url, "prompt=consent")
}

func TestService_Me(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	authed, err := svc.Register(ctx, "ana@example.com", "s3cret", nil)
	require.NoError(t, err)

	user, err := svc.Me(ctx, Identity{UserID: authed.User.ID})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = svc.Me(ctx, Identity{UserID: 9999})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
