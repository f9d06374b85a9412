package db

import (
	"context"

	"quillpost-backend-go/internal/models"
)

// UserRepository defines the interface for user profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// Create writes the whole profile document, overwriting any existing one.
	Create(ctx context.Context, user *models.User) error
	UpdateMembership(ctx context.Context, userID, membership string) error
	// UpdatePostCounts writes the given counter values; it is not an atomic increment.
	UpdatePostCounts(ctx context.Context, userID string, postsThisMonth, totalPosts int) error
	// ResetMonthlyPostCounts zeroes postsThisMonth on every user in one atomic batch
	// and returns the number of users affected.
	ResetMonthlyPostCounts(ctx context.Context) (int, error)
}

// PostRepository defines the interface for post storage operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (string, error) // Returns new post ID
	// List returns posts ordered by createdAt descending, restricted to userID when non-empty.
	List(ctx context.Context, userID string) ([]*models.Post, error)
	Delete(ctx context.Context, postID string) error
}

// AuditRepository defines the interface for audit log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
