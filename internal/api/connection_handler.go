package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/middleware"
)

// ConnectionHandler receives the client's browser online/offline signals. A signal
// affects only the session that sent it.
type ConnectionHandler struct {
	logger *zap.Logger
}

func NewConnectionHandler(logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{logger: logger}
}

// Online handles POST /connection/online.
func (h *ConnectionHandler) Online(c *gin.Context) {
	b := middleware.SessionFrom(c)
	b.User.HandleOnline(c.Request.Context())
	c.JSON(http.StatusOK, newSessionResponse(b))
}

// Offline handles POST /connection/offline.
func (h *ConnectionHandler) Offline(c *gin.Context) {
	b := middleware.SessionFrom(c)
	b.User.HandleOffline(c.Request.Context())
	c.JSON(http.StatusOK, newSessionResponse(b))
}

// Refresh handles POST /connection/refresh.
func (h *ConnectionHandler) Refresh(c *gin.Context) {
	b := middleware.SessionFrom(c)
	if err := b.User.RefreshConnection(c.Request.Context()); err != nil {
		mapCoreErrorToStatus(c, h.logger, err, b.User.LastError())
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(b))
}
