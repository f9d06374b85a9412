package identity

import (
	"context"
	"sync"
)

// AuthListener receives the signed-in user, or nil after sign-out.
type AuthListener func(ctx context.Context, user *AuthUser)

// AuthState is one session's auth-state stream. Until the first Set the state is
// unresolved; Await blocks until that first emission has reached every listener.
type AuthState struct {
	mu        sync.Mutex
	current   *AuthUser
	resolved  bool
	ready     chan struct{}
	readyOnce sync.Once
	nextID    int
	listeners map[int]AuthListener
	order     []int
}

// NewAuthState creates an unresolved state.
func NewAuthState() *AuthState {
	return &AuthState{
		ready:     make(chan struct{}),
		listeners: make(map[int]AuthListener),
	}
}

// Set records the new state and notifies listeners synchronously, in subscription order.
func (s *AuthState) Set(ctx context.Context, user *AuthUser) {
	s.mu.Lock()
	s.current = copyUser(user)
	s.resolved = true
	listeners := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, copyUser(user))
	}
	s.readyOnce.Do(func() { close(s.ready) })
}

// Current returns the signed-in user, or nil.
func (s *AuthState) Current() *AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.current)
}

// Resolved reports whether Set has been called at least once.
func (s *AuthState) Resolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Subscribe registers fn. If the state is already resolved fn is called
// immediately with the current user. The returned function unsubscribes.
func (s *AuthState) Subscribe(ctx context.Context, fn AuthListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	resolved, current := s.resolved, copyUser(s.current)
	s.mu.Unlock()

	if resolved {
		fn(ctx, current)
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Await blocks until the first emission and returns the user at that point.
func (s *AuthState) Await(ctx context.Context) (*AuthUser, error) {
	select {
	case <-s.ready:
		return s.Current(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *AuthState) snapshotLocked() []AuthListener {
	out := make([]AuthListener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listeners[id])
	}
	return out
}

func copyUser(user *AuthUser) *AuthUser {
	if user == nil {
		return nil
	}
	c := *user
	return &c
}
