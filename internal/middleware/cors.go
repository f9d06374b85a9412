package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CORSMiddleware allows credentialed cross-origin requests from the given origins.
// With no origins configured only same-origin requests are served.
func CORSMiddleware(origins []string, logger *zap.Logger) gin.HandlerFunc {
	if len(origins) == 0 {
		logger.Warn("CLIENT_URL is not set; cross-origin requests will be rejected by browsers")
		return func(c *gin.Context) { c.Next() }
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	})
}
