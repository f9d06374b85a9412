package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/models"
)

type staticSession struct {
	user      *models.User
	remaining int
}

func (s staticSession) User() *models.User   { return s.user.Clone() }
func (s staticSession) PostsRemaining() int { return s.remaining }

// countingPosts records writes and can fail List.
type countingPosts struct {
	db.PostRepository
	creates int
	deletes int
	listErr error
}

func (c *countingPosts) Create(ctx context.Context, post *models.Post) (string, error) {
	c.creates++
	return c.PostRepository.Create(ctx, post)
}

func (c *countingPosts) Delete(ctx context.Context, postID string) error {
	c.deletes++
	return c.PostRepository.Delete(ctx, postID)
}

func (c *countingPosts) List(ctx context.Context, userID string) ([]*models.Post, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.PostRepository.List(ctx, userID)
}

func newPostFixture(t *testing.T, session SessionSnapshot) (*PostCollection, *countingPosts, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	posts := &countingPosts{PostRepository: db.NewMemoryPostRepository(store, nil)}
	c := NewPostCollection(posts, session, NewAuditService(db.NewMemoryAuditRepository(store)), zaptest.NewLogger(t))
	return c, posts, store
}

func TestCreatePost_RequiresUser(t *testing.T) {
	c, posts, _ := newPostFixture(t, staticSession{})

	_, err := c.CreatePost(context.Background(), models.CreatePostRequest{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, posts.creates)
}

func TestCreatePost_QuotaExceededBeforeWrite(t *testing.T) {
	for _, remaining := range []int{0, -2} {
		session := staticSession{user: &models.User{ID: "u1", Membership: models.PlanFree, PostsThisMonth: 3}, remaining: remaining}
		c, posts, _ := newPostFixture(t, session)

		_, err := c.CreatePost(context.Background(), models.CreatePostRequest{Title: "t", Content: "c"})
		assert.ErrorIs(t, err, ErrQuotaExceeded)
		assert.Zero(t, posts.creates)
		assert.Empty(t, c.Posts())
		assert.Contains(t, c.LastError(), "monthly post limit")
	}
}

func TestCreatePost_PrependsWithAuthor(t *testing.T) {
	ctx := context.Background()
	session := staticSession{user: &models.User{ID: "u1", DisplayName: "Ann"}, remaining: 2}
	c, _, store := newPostFixture(t, session)

	first, err := c.CreatePost(ctx, models.CreatePostRequest{Title: "first", Content: "<p>a</p>"})
	require.NoError(t, err)
	second, err := c.CreatePost(ctx, models.CreatePostRequest{Title: "second", Content: "<p>b</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Ann", first.Author)
	assert.Equal(t, "u1", first.UserID)
	assert.False(t, first.CreatedAt.IsZero())

	list := c.Posts()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	logs := store.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionPostCreate, logs[0].Action)
}

func TestDeletePost_NotOwnerLeavesList(t *testing.T) {
	ctx := context.Background()
	owner := staticSession{user: &models.User{ID: "owner", DisplayName: "O"}, remaining: 5}
	seed, _, store := newPostFixture(t, owner)
	post, err := seed.CreatePost(ctx, models.CreatePostRequest{Title: "mine", Content: "x"})
	require.NoError(t, err)

	other := staticSession{user: &models.User{ID: "intruder"}, remaining: 5}
	posts := &countingPosts{PostRepository: db.NewMemoryPostRepository(store, nil)}
	c := NewPostCollection(posts, other, nil, zaptest.NewLogger(t))
	_, err = c.FetchPosts(ctx, "")
	require.NoError(t, err)

	err = c.DeletePost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Zero(t, posts.deletes)
	require.Len(t, c.Posts(), 1)
	assert.Equal(t, post.ID, c.Posts()[0].ID)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	session := staticSession{user: &models.User{ID: "u1"}, remaining: 5}
	c, posts, _ := newPostFixture(t, session)

	assert.ErrorIs(t, c.DeletePost(ctx, "missing"), ErrPostNotFound)

	post, err := c.CreatePost(ctx, models.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NoError(t, c.DeletePost(ctx, post.ID))
	assert.Empty(t, c.Posts())
	assert.Equal(t, 1, posts.deletes)

	remaining, err := posts.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestFetchPosts_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	c, posts, _ := newPostFixture(t, staticSession{})
	for _, p := range []models.Post{
		{Title: "a1", UserID: "a"},
		{Title: "b1", UserID: "b"},
		{Title: "a2", UserID: "a"},
	} {
		p := p
		_, err := posts.Create(ctx, &p)
		require.NoError(t, err)
	}

	mine, err := c.FetchPosts(ctx, "a")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a2", mine[0].Title)
	assert.Equal(t, "a1", mine[1].Title)
	for _, p := range mine {
		assert.Equal(t, "a", p.UserID)
	}

	all, err := c.FetchPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}
}

func TestFetchPosts_FailureKeepsPreviousList(t *testing.T) {
	ctx := context.Background()
	c, posts, _ := newPostFixture(t, staticSession{})
	_, err := posts.Create(ctx, &models.Post{Title: "kept"})
	require.NoError(t, err)
	_, err = c.FetchPosts(ctx, "")
	require.NoError(t, err)

	cause := errors.New("deadline exceeded")
	posts.listErr = cause
	_, err = c.FetchPosts(ctx, "")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, c.Posts(), 1)
	assert.Equal(t, "Failed to load posts: deadline exceeded", c.LastError())
}
