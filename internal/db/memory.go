package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quillpost-backend-go/internal/models"
)

// MemoryStore is an in-process document store used by the memory driver and by tests.
// Repositories created from it share its data but may each carry their own NetworkGate.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]models.User
	posts map[string]memoryPost
	audit []models.AuditLog
	seq   int64

	// Now stamps createdAt/updatedAt, standing in for server timestamps.
	Now func() time.Time
}

type memoryPost struct {
	post models.Post
	seq  int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]models.User),
		posts: make(map[string]memoryPost),
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// AuditLogs returns a copy of every recorded audit entry.
func (s *MemoryStore) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

type memoryUserRepository struct {
	store *MemoryStore
	gate  *NetworkGate
}

// NewMemoryUserRepository returns a UserRepository view of store guarded by gate.
func NewMemoryUserRepository(store *MemoryStore, gate *NetworkGate) UserRepository {
	return &memoryUserRepository{store: store, gate: gate}
}

func (r *memoryUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if err := r.gate.Check(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return &user, nil
}

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty for Create operation")
	}
	if err := r.gate.Check(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *user
	now := r.store.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	r.store.users[user.ID] = stored
	return nil
}

func (r *memoryUserRepository) UpdateMembership(ctx context.Context, userID, membership string) error {
	return r.update(userID, func(u *models.User) { u.Membership = membership })
}

func (r *memoryUserRepository) UpdatePostCounts(ctx context.Context, userID string, postsThisMonth, totalPosts int) error {
	return r.update(userID, func(u *models.User) {
		u.PostsThisMonth = postsThisMonth
		u.TotalPosts = totalPosts
	})
}

func (r *memoryUserRepository) update(userID string, apply func(*models.User)) error {
	if err := r.gate.Check(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return fmt.Errorf("user with ID '%s' not found for update: %w", userID, ErrNotFound)
	}
	apply(&user)
	user.UpdatedAt = r.store.Now()
	r.store.users[userID] = user
	return nil
}

// ResetMonthlyPostCounts holds the store lock for the whole pass, which makes it atomic.
func (r *memoryUserRepository) ResetMonthlyPostCounts(ctx context.Context) (int, error) {
	if err := r.gate.Check(); err != nil {
		return 0, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, user := range r.store.users {
		user.PostsThisMonth = 0
		r.store.users[id] = user
	}
	return len(r.store.users), nil
}

type memoryPostRepository struct {
	store *MemoryStore
	gate  *NetworkGate
}

// NewMemoryPostRepository returns a PostRepository view of store guarded by gate.
func NewMemoryPostRepository(store *MemoryStore, gate *NetworkGate) PostRepository {
	return &memoryPostRepository{store: store, gate: gate}
}

func (r *memoryPostRepository) Create(ctx context.Context, post *models.Post) (string, error) {
	if err := r.gate.Check(); err != nil {
		return "", err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *post
	stored.ID = uuid.NewString()
	now := r.store.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.store.seq++
	r.store.posts[stored.ID] = memoryPost{post: stored, seq: r.store.seq}
	return stored.ID, nil
}

func (r *memoryPostRepository) List(ctx context.Context, userID string) ([]*models.Post, error) {
	if err := r.gate.Check(); err != nil {
		return nil, err
	}
	r.store.mu.Lock()
	entries := make([]memoryPost, 0, len(r.store.posts))
	for _, entry := range r.store.posts {
		if userID == "" || entry.post.UserID == userID {
			entries = append(entries, entry)
		}
	}
	r.store.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})

	posts := make([]*models.Post, len(entries))
	for i := range entries {
		post := entries[i].post
		posts[i] = &post
	}
	return posts, nil
}

func (r *memoryPostRepository) Delete(ctx context.Context, postID string) error {
	if err := r.gate.Check(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.posts[postID]; !ok {
		return fmt.Errorf("post with ID '%s' not found for deletion: %w", postID, ErrNotFound)
	}
	delete(r.store.posts, postID)
	return nil
}

type memoryAuditRepository struct {
	store *MemoryStore
}

// NewMemoryAuditRepository returns an AuditRepository view of store.
func NewMemoryAuditRepository(store *MemoryStore) AuditRepository {
	return &memoryAuditRepository{store: store}
}

func (r *memoryAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	logEntry.ID = uuid.NewString()
	if logEntry.Timestamp.IsZero() {
		logEntry.Timestamp = r.store.Now()
	}
	r.store.audit = append(r.store.audit, logEntry)
	return nil
}
