// Package session keeps one set of client state (auth stream, user, posts, store gate)
// per browser session or bearer identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/cache"
	"quillpost-backend-go/internal/connectivity"
	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/identity"
)

const (
	tokenKeyPrefix = "session:"
	restoreTimeout = 10 * time.Second
)

// ErrUnknownSession is returned by Resolve for tokens that are neither live nor persisted.
var ErrUnknownSession = errors.New("unknown session")

// Bundle is the state of one client session.
type Bundle struct {
	ID    string
	Auth  *identity.AuthState
	Gate  *db.NetworkGate
	User  *core.UserSession
	Posts *core.PostCollection

	mu          sync.Mutex
	lastSeen    time.Time
	unsubscribe []func()
}

func (b *Bundle) touch(now time.Time) {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

func (b *Bundle) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}

func (b *Bundle) close() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	for _, fn := range unsubscribe {
		fn()
	}
	b.User.Close()
}

// Config holds the dependencies shared by every session.
type Config struct {
	Repositories db.RepositoryFactory
	Identity     identity.Provider
	Cache        cache.Cache
	Monitor      *connectivity.Monitor
	Audit        core.AuditService
	TTL          time.Duration // Lifetime of a persisted token binding
	IdleTimeout  time.Duration // Live bundles idle longer than this are evicted
	Logger       *zap.Logger
}

// Registry creates, resolves and evicts session bundles.
type Registry struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	bundles map[string]*Bundle
	bearers map[string]*Bundle // by UID
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryCache()
	}
	return &Registry{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		bundles: make(map[string]*Bundle),
		bearers: make(map[string]*Bundle),
	}
}

// Create starts a new signed-out session with a fresh token.
func (r *Registry) Create(ctx context.Context) *Bundle {
	b := r.newBundle(ctx, uuid.NewString(), true)
	b.Auth.Set(ctx, nil)

	r.mu.Lock()
	r.bundles[b.ID] = b
	r.mu.Unlock()
	return b
}

// Resolve returns the live bundle for token. After a restart, a token persisted in the
// cache gets a new bundle whose auth state is restored in the background; callers that
// need the outcome wait on Bundle.Auth.Await.
func (r *Registry) Resolve(ctx context.Context, token string) (*Bundle, error) {
	r.mu.Lock()
	if b, ok := r.bundles[token]; ok {
		r.mu.Unlock()
		b.touch(r.now())
		return b, nil
	}
	r.mu.Unlock()

	uid, err := r.cfg.Cache.Get(ctx, tokenKeyPrefix+token)
	if err != nil {
		return nil, fmt.Errorf("failed to read session binding: %w", err)
	}
	if uid == "" {
		return nil, ErrUnknownSession
	}

	b := r.newBundle(ctx, token, true)
	r.mu.Lock()
	if existing, ok := r.bundles[token]; ok {
		r.mu.Unlock()
		b.close()
		return existing, nil
	}
	r.bundles[token] = b
	r.mu.Unlock()

	go r.restore(b, uid)
	return b, nil
}

// restore emits the persisted identity on the bundle's auth state, which in turn loads the profile.
func (r *Registry) restore(b *Bundle, uid string) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	authUser, err := r.cfg.Identity.LookupUser(ctx, uid)
	if err != nil {
		r.logger.Warn("Could not restore session", zap.String("session", b.ID), zap.String("userId", uid), zap.Error(err))
		if errors.Is(err, identity.ErrUserNotFound) {
			b.Auth.Set(ctx, nil)
			return
		}
		// Keep the identity; the profile load falls back to a minimal user.
		authUser = &identity.AuthUser{UID: uid}
	}
	b.Auth.Set(ctx, authUser)
}

// ForIDToken returns the bundle of the account that owns a bearer ID token.
func (r *Registry) ForIDToken(ctx context.Context, idToken string) (*Bundle, error) {
	authUser, err := r.cfg.Identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if b, ok := r.bearers[authUser.UID]; ok {
		r.mu.Unlock()
		b.touch(r.now())
		if current := b.Auth.Current(); current == nil {
			b.Auth.Set(ctx, authUser)
		}
		return b, nil
	}
	b := r.newBundle(ctx, "bearer:"+authUser.UID, false)
	r.bearers[authUser.UID] = b
	r.mu.Unlock()

	b.Auth.Set(ctx, authUser)
	return b, nil
}

// Destroy evicts a live session and forgets its persisted binding.
func (r *Registry) Destroy(ctx context.Context, token string) {
	r.mu.Lock()
	b, ok := r.bundles[token]
	delete(r.bundles, token)
	r.mu.Unlock()
	if ok {
		b.close()
	}
	if err := r.cfg.Cache.Delete(ctx, tokenKeyPrefix+token); err != nil {
		r.logger.Warn("Failed to delete session binding", zap.String("session", token), zap.Error(err))
	}
}

// Sweep evicts bundles idle longer than IdleTimeout. Persisted bindings are kept,
// so an evicted cookie session is restored on its next request.
func (r *Registry) Sweep() int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.cfg.IdleTimeout)

	var evicted []*Bundle
	r.mu.Lock()
	for id, b := range r.bundles {
		if b.idleSince().Before(cutoff) {
			delete(r.bundles, id)
			evicted = append(evicted, b)
		}
	}
	for uid, b := range r.bearers {
		if b.idleSince().Before(cutoff) {
			delete(r.bearers, uid)
			evicted = append(evicted, b)
		}
	}
	r.mu.Unlock()

	for _, b := range evicted {
		b.close()
	}
	if len(evicted) > 0 {
		r.logger.Info("Evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len returns the number of live bundles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bundles) + len(r.bearers)
}

func (r *Registry) newBundle(ctx context.Context, id string, persist bool) *Bundle {
	logger := r.logger.With(zap.String("session", id))
	gate := db.NewNetworkGate(r.cfg.Repositories.Probe())
	auth := identity.NewAuthState()

	user := core.NewUserSession(core.UserSessionConfig{
		Users:     r.cfg.Repositories.UserRepository(gate),
		Identity:  r.cfg.Identity,
		AuthState: auth,
		Gate:      gate,
		Audit:     r.cfg.Audit,
		Logger:    logger,
	})
	posts := core.NewPostCollection(r.cfg.Repositories.PostRepository(gate), user, r.cfg.Audit, logger)

	b := &Bundle{ID: id, Auth: auth, Gate: gate, User: user, Posts: posts, lastSeen: r.now()}

	if persist {
		b.unsubscribe = append(b.unsubscribe, auth.Subscribe(ctx, r.persistBinding(id)))
	}
	user.InitAuth(ctx)
	if r.cfg.Monitor != nil {
		b.unsubscribe = append(b.unsubscribe, r.cfg.Monitor.Subscribe(user))
		if !r.cfg.Monitor.Online() {
			user.HandleOffline(ctx)
		}
	}
	return b
}

func (r *Registry) persistBinding(token string) identity.AuthListener {
	return func(ctx context.Context, authUser *identity.AuthUser) {
		key := tokenKeyPrefix + token
		var err error
		if authUser == nil {
			err = r.cfg.Cache.Delete(ctx, key)
		} else {
			err = r.cfg.Cache.Set(ctx, key, authUser.UID, r.cfg.TTL)
		}
		if err != nil {
			r.logger.Warn("Failed to persist session binding", zap.String("session", token), zap.Error(err))
		}
	}
}
