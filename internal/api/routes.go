package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/connectivity"
	"quillpost-backend-go/internal/content"
	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/middleware"
)

// SetupRoutes registers the JSON API. The session middleware must already be
// installed on router so that every handler finds a session bundle.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	generator *content.Generator,
	publisher events.Publisher,
	monitor *connectivity.Monitor,
) {
	authHandler := NewAuthHandler(logger)
	userHandler := NewUserHandler(logger)
	postHandler := NewPostHandler(publisher, logger)
	contentHandler := NewContentHandler(generator)
	connectionHandler := NewConnectionHandler(logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "online": monitor.Online()})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
		}

		apiV1.GET("/memberships", userHandler.ListMemberships)
		apiV1.GET("/users/me", userHandler.GetSession)
		apiV1.PUT("/users/me/membership", middleware.RequireUser(), userHandler.UpdateMembership)

		postsGroup := apiV1.Group("/posts")
		{
			postsGroup.GET("", postHandler.ListPosts)
			postsGroup.POST("", middleware.RequireUser(), postHandler.CreatePost)
			postsGroup.DELETE("/:postId", middleware.RequireUser(), postHandler.DeletePost)
		}

		contentGroup := apiV1.Group("/content")
		{
			contentGroup.POST("/generate", contentHandler.GenerateContent)
			contentGroup.POST("/titles", contentHandler.SuggestTitles)
		}

		connectionGroup := apiV1.Group("/connection")
		{
			connectionGroup.POST("/online", connectionHandler.Online)
			connectionGroup.POST("/offline", connectionHandler.Offline)
			connectionGroup.POST("/refresh", connectionHandler.Refresh)
		}
	}
}
