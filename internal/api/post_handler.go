package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/models"
)

const msgCountNotUpdated = "Post created, but your monthly post count could not be updated."

// PostHandler handles API endpoints related to posts.
type PostHandler struct {
	publisher events.Publisher
	logger    *zap.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(publisher events.Publisher, logger *zap.Logger) *PostHandler {
	return &PostHandler{publisher: publisher, logger: logger}
}

// ListPosts handles GET /posts?userId=. The result also becomes the session's post list,
// which DELETE checks against.
func (h *PostHandler) ListPosts(c *gin.Context) {
	b := middleware.SessionFrom(c)
	posts, err := b.Posts.FetchPosts(c.Request.Context(), c.Query("userId"))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.Posts.LastError())
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost handles POST /posts. After the post is written the author's counters are
// incremented; if that fails the post stays and the response carries a warning.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	ctx := c.Request.Context()
	b := middleware.SessionFrom(c)
	post, err := b.Posts.CreatePost(ctx, req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.Posts.LastError())
		return
	}

	resp := PostResponse{Post: post}
	if _, err := b.User.IncrementPostCount(ctx); err != nil {
		h.logger.Error("Post created but count increment failed", zap.String("postId", post.ID), zap.Error(err))
		resp.Warning = msgCountNotUpdated
	}

	h.publish(ctx, events.PostCreated, map[string]string{"postId": post.ID, "userId": post.UserID})
	c.JSON(http.StatusCreated, resp)
}

// DeletePost handles DELETE /posts/:postId.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("postId")
	if postID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Post ID is required"})
		return
	}

	ctx := c.Request.Context()
	b := middleware.SessionFrom(c)
	if err := b.Posts.DeletePost(ctx, postID); err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.Posts.LastError())
		return
	}

	h.publish(ctx, events.PostDeleted, map[string]string{"postId": postID, "userId": b.User.User().ID})
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) publish(ctx context.Context, eventType string, payload interface{}) {
	if err := h.publisher.Publish(ctx, eventType, payload); err != nil {
		h.logger.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
