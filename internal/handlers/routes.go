package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/middleware"
)

// RegisterRoutes mounts the API under /api/v1 and the health check at /health
func (h *Handlers) RegisterRoutes(router *gin.Engine, auth *middleware.Authenticator) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1")

	posts := api.Group("/posts", auth.RequireAuth())
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.POST("/publish", h.PublishPost)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", h.CreateComment)
		posts.POST("/:id/like", h.ToggleLike)
		posts.POST("/:id/favorite", h.ToggleFavorite)
	}

	api.GET("/feed", auth.RequireAuth(), h.GetFeed)

	// Usable before sign-in completes
	api.POST("/upload", auth.OptionalAuth(), h.Upload)
	api.POST("/ai/analyze", auth.OptionalAuth(), h.Analyze)
}
