package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/models"
)

// PostCollection owns one session's in-memory list of posts. The list is a cache
// of store contents refreshed by FetchPosts; it is not kept consistent otherwise.
type PostCollection struct {
	posts   db.PostRepository
	session SessionSnapshot
	audit   AuditService
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	list    []*models.Post
	loading int
	lastErr string
}

// NewPostCollection creates an empty collection bound to session.
func NewPostCollection(posts db.PostRepository, session SessionSnapshot, audit AuditService, logger *zap.Logger) *PostCollection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostCollection{
		posts:   posts,
		session: session,
		audit:   audit,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchPosts replaces the list with posts newest first, limited to userID when it is
// non-empty. On error the previous list is kept.
func (c *PostCollection) FetchPosts(ctx context.Context, userID string) ([]*models.Post, error) {
	c.begin()
	defer c.end()

	posts, err := c.posts.List(ctx, userID)
	if err != nil {
		c.logger.Error("Error fetching posts", zap.String("userId", userID), zap.Error(err))
		c.setError("Failed to load posts: " + err.Error())
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	c.mu.Lock()
	c.list = posts
	out := copyPosts(c.list)
	c.mu.Unlock()
	return out, nil
}

// CreatePost writes a post for the signed-in user if their allowance permits and
// prepends it locally with a local timestamp. The quota check uses the session
// snapshot only, so concurrent sessions can exceed it.
func (c *PostCollection) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	c.begin()
	defer c.end()

	user := c.session.User()
	if user == nil {
		c.setError("Failed to create post: You must be logged in to create a post")
		return nil, ErrNotAuthenticated
	}
	if c.session.PostsRemaining() <= 0 {
		c.setError("Failed to create post: You have reached your monthly post limit")
		return nil, ErrQuotaExceeded
	}

	post := &models.Post{
		Title:   req.Title,
		Content: req.Content,
		UserID:  user.ID,
		Author:  user.DisplayName,
	}
	id, err := c.posts.Create(ctx, post)
	if err != nil {
		c.logger.Error("Error creating post", zap.String("userId", user.ID), zap.Error(err))
		c.setError("Failed to create post: " + err.Error())
		return nil, storeError("create post", err)
	}

	post.ID = id
	now := c.now()
	post.CreatedAt = now
	post.UpdatedAt = now

	c.mu.Lock()
	c.list = append([]*models.Post{post}, c.list...)
	c.mu.Unlock()

	recordAudit(ctx, c.audit, c.logger, models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionPostCreate,
		TargetType: "POST",
		TargetID:   id,
	})

	created := *post
	return &created, nil
}

// DeletePost removes a post the signed-in user owns. The post must be in the local
// list; ownership is checked against it before any store call.
func (c *PostCollection) DeletePost(ctx context.Context, postID string) error {
	c.begin()
	defer c.end()

	user := c.session.User()
	if user == nil {
		c.setError("Failed to delete post: You must be logged in to delete a post")
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	var target *models.Post
	for _, p := range c.list {
		if p.ID == postID {
			target = p
			break
		}
	}
	c.mu.Unlock()

	if target == nil {
		c.setError("Failed to delete post: Post not found")
		return ErrPostNotFound
	}
	if target.UserID != user.ID {
		c.setError("Failed to delete post: You can only delete your own posts")
		return ErrNotOwner
	}

	if err := c.posts.Delete(ctx, postID); err != nil {
		c.logger.Error("Error deleting post", zap.String("postId", postID), zap.Error(err))
		c.setError("Failed to delete post: " + err.Error())
		return storeError("delete post", err)
	}

	c.mu.Lock()
	kept := c.list[:0:0]
	for _, p := range c.list {
		if p.ID != postID {
			kept = append(kept, p)
		}
	}
	c.list = kept
	c.mu.Unlock()

	recordAudit(ctx, c.audit, c.logger, models.AuditLog{
		UserID:     user.ID,
		Action:     models.AuditActionPostDelete,
		TargetType: "POST",
		TargetID:   postID,
	})
	return nil
}

// Posts returns a copy of the in-memory list.
func (c *PostCollection) Posts() []*models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyPosts(c.list)
}

func (c *PostCollection) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

func (c *PostCollection) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *PostCollection) begin() {
	c.mu.Lock()
	c.loading++
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *PostCollection) end() {
	c.mu.Lock()
	c.loading--
	c.mu.Unlock()
}

func (c *PostCollection) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func copyPosts(posts []*models.Post) []*models.Post {
	out := make([]*models.Post, len(posts))
	for i, p := range posts {
		cp := *p
		out[i] = &cp
	}
	return out
}
