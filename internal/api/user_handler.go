package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/models"
)

// UserHandler handles the signed-in user's profile and membership.
type UserHandler struct {
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// GetSession handles GET /users/me. It also answers for signed-out sessions.
func (h *UserHandler) GetSession(c *gin.Context) {
	b := middleware.SessionFrom(c)
	if _, err := b.Auth.Await(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Session not ready"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(b))
}

// UpdateMembership handles PUT /users/me/membership.
func (h *UserHandler) UpdateMembership(c *gin.Context) {
	var req models.UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	b := middleware.SessionFrom(c)
	if _, err := b.User.UpdateMembership(c.Request.Context(), req.Membership); err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.User.LastError())
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(b))
}

// ListMemberships handles GET /memberships.
func (h *UserHandler) ListMemberships(c *gin.Context) {
	c.JSON(http.StatusOK, core.MembershipPlans())
}
