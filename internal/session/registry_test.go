package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quillpost-backend-go/internal/cache"
	"quillpost-backend-go/internal/connectivity"
	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/identity"
)

type registryFixture struct {
	store    *db.MemoryStore
	provider *identity.MemoryProvider
	cache    *cache.MemoryCache
	monitor  *connectivity.Monitor
}

func newRegistryFixture() *registryFixture {
	return &registryFixture{
		store:    db.NewMemoryStore(),
		provider: identity.NewMemoryProvider(),
		cache:    cache.NewMemoryCache(),
	}
}

func (f *registryFixture) registry(t *testing.T) *Registry {
	t.Helper()
	logger := zaptest.NewLogger(t)
	if f.monitor == nil {
		f.monitor = connectivity.NewMonitor(nil, 0, logger)
	}
	return NewRegistry(Config{
		Repositories: db.NewMemoryFactory(f.store),
		Identity:     f.provider,
		Cache:        f.cache,
		Monitor:      f.monitor,
		Audit:        core.NewAuditService(db.NewMemoryAuditRepository(f.store)),
		TTL:          time.Hour,
		IdleTimeout:  time.Minute,
		Logger:       logger,
	})
}

func awaitUser(t *testing.T, b *Bundle) *identity.AuthUser {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	user, err := b.Auth.Await(ctx)
	require.NoError(t, err)
	return user
}

func TestRegistry_CreateIsSignedOut(t *testing.T) {
	r := newRegistryFixture().registry(t)

	b := r.Create(context.Background())
	assert.Nil(t, awaitUser(t, b))
	assert.False(t, b.User.IsAuthenticated())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	first := f.registry(t)

	b := first.Create(ctx)
	_, err := b.User.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	// A new registry over the same cache stands in for a restarted process.
	restarted := f.registry(t)
	restored, err := restarted.Resolve(ctx, b.ID)
	require.NoError(t, err)

	authUser := awaitUser(t, restored)
	require.NotNil(t, authUser)
	assert.Equal(t, b.User.User().ID, authUser.UID)
	require.NotNil(t, restored.User.User())
	assert.Equal(t, "Ann", restored.User.User().DisplayName)

	again, err := restarted.Resolve(ctx, b.ID)
	require.NoError(t, err)
	assert.Same(t, restored, again)
}

func TestRegistry_LogoutForgetsBinding(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	r := f.registry(t)

	b := r.Create(ctx)
	_, err := b.User.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	require.NoError(t, b.User.Logout(ctx))

	_, err = f.registry(t).Resolve(ctx, b.ID)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	_, err := newRegistryFixture().registry(t).Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRegistry_ForIDToken(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	r := f.registry(t)

	_, err := f.provider.CreateAccount(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	signedIn, err := f.provider.SignIn(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	b, err := r.ForIDToken(ctx, signedIn.IDToken)
	require.NoError(t, err)
	assert.True(t, b.User.IsAuthenticated())

	same, err := r.ForIDToken(ctx, signedIn.IDToken)
	require.NoError(t, err)
	assert.Same(t, b, same)

	_, err = r.ForIDToken(ctx, "forged")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestRegistry_Sweep(t *testing.T) {
	ctx := context.Background()
	r := newRegistryFixture().registry(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	idle := r.Create(ctx)
	now = now.Add(50 * time.Second)
	active := r.Create(ctx)
	now = now.Add(20 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	_, err := r.Resolve(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrUnknownSession)
	got, err := r.Resolve(ctx, active.ID)
	require.NoError(t, err)
	assert.Same(t, active, got)
}

func TestRegistry_ConnectivityReachesSessions(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	r := f.registry(t)
	a, b := r.Create(ctx), r.Create(ctx)

	f.monitor.SetOnline(ctx, false)
	assert.True(t, a.User.IsOffline())
	assert.False(t, b.Gate.Enabled())

	late := r.Create(ctx)
	assert.True(t, late.User.IsOffline())

	f.monitor.SetOnline(ctx, true)
	assert.False(t, a.User.IsOffline())
	assert.True(t, b.Gate.Enabled())
	assert.True(t, late.Gate.Enabled())

	r.Destroy(ctx, a.ID)
	f.monitor.SetOnline(ctx, false)
	assert.False(t, a.User.IsOffline(), "destroyed session is unsubscribed")
}
