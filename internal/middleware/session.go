package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/crypto"
	"quillpost-backend-go/internal/session"
)

const (
	// SessionCookieName is the cookie carrying the sealed session token.
	SessionCookieName = "quillpost_session"

	sessionContextKey = "session"
)

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CookieOptions control the session cookie.
type CookieOptions struct {
	MaxAge time.Duration
	Secure bool
}

// SessionLoader attaches a session bundle to every request. A bearer ID token selects
// the token owner's bundle; otherwise the session cookie is used, and a new signed-out
// session with a fresh cookie is started when it is missing or unknown.
func SessionLoader(registry *session.Registry, sealer *crypto.Sealer, opts CookieOptions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
				return
			}
			b, err := registry.ForIDToken(ctx, parts[1])
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
				return
			}
			c.Set(sessionContextKey, b)
			c.Next()
			return
		}

		var b *session.Bundle
		if sealed, err := c.Cookie(SessionCookieName); err == nil && sealed != "" {
			token, err := sealer.Open(sealed)
			if err != nil {
				logger.Debug("Discarding unreadable session cookie", zap.Error(err))
			} else if b, err = registry.Resolve(ctx, token); err != nil {
				if !errors.Is(err, session.ErrUnknownSession) {
					logger.Warn("Failed to resolve session", zap.Error(err))
				}
				b = nil
			}
		}

		if b == nil {
			b = registry.Create(ctx)
			sealed, err := sealer.Seal(b.ID)
			if err != nil {
				logger.Error("Failed to seal session token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sealed, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		}

		c.Set(sessionContextKey, b)
		c.Next()
	}
}

// SessionFrom returns the bundle attached by SessionLoader, or nil.
func SessionFrom(c *gin.Context) *session.Bundle {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	b, _ := v.(*session.Bundle)
	return b
}
