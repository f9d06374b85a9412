package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// Access is the navigation requirement of a page route.
type Access int

const (
	Public Access = iota
	RequiresAuth
	GuestOnly
)

// RouteGuard waits for the session's first auth-state emission and then redirects:
// signed-out visitors of RequiresAuth pages go to /login?redirect=<original URI>,
// signed-in visitors of GuestOnly pages go to /. Everything else proceeds.
func RouteGuard(access Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		b := SessionFrom(c)
		if b == nil {
			c.Next()
			return
		}

		authUser, err := b.Auth.Await(c.Request.Context())
		if err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		switch {
		case access == RequiresAuth && authUser == nil:
			c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
		case access == GuestOnly && authUser != nil:
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		default:
			c.Next()
		}
	}
}

// RequireUser rejects API requests without a loaded user with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		b := SessionFrom(c)
		if b == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		if _, err := b.Auth.Await(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Session not ready"})
			return
		}
		if !b.User.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		c.Next()
	}
}
