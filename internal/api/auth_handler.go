package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/core"
	"quillpost-backend-go/internal/middleware"
	"quillpost-backend-go/internal/models"
)

// AuthHandler handles registration, login and logout for the request's session.
type AuthHandler struct {
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Register handles POST /auth/register. A failed profile write still answers 201,
// with the session's message in the warning field.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	b := middleware.SessionFrom(c)
	_, err := b.User.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil && !errors.Is(err, core.ErrProfileSetupFailed) {
		mapCoreErrorToStatus(c, h.logger, err, b.User.LastError())
		return
	}

	resp := newSessionResponse(b)
	if err != nil {
		h.logger.Warn("Registered with degraded profile", zap.Error(err))
		resp.Warning = b.User.LastError()
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /auth/login. The ID token in the response can be used as a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	b := middleware.SessionFrom(c)
	authUser, err := b.User.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.User.LastError())
		return
	}

	resp := newSessionResponse(b)
	resp.IDToken = authUser.IDToken
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	b := middleware.SessionFrom(c)
	if err := b.User.Logout(c.Request.Context()); err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.User.LastError())
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}
