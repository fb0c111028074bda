package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Cached catalog
	if cfg.Videos != nil {
		videosController := NewVideosController(cfg.Videos)
		router.GET("/videos", videosController.ListVideos)
		router.GET("/videos/:id", videosController.GetVideo)
		router.POST("/videos/:id/rating", videosController.RateVideo)
	}

	// Background sync status
	if cfg.Sync != nil {
		syncController := NewSyncController(cfg.Sync)
		router.GET("/sync/status", syncController.GetStatus)
		router.POST("/sync/run", syncController.RunNow)
	}

	// Transfer endpoints
	if cfg.Queue != nil && cfg.Transfers != nil {
		transfersController := NewTransfersController(cfg.Queue, cfg.Transfers, cfg.Videos)
		router.POST("/transfers/upload", transfersController.Upload)
		router.POST("/transfers/download/:id", transfersController.Download)
		router.GET("/transfers", transfersController.ListTransfers)
		router.GET("/transfers/:id", transfersController.GetTransfer)
		router.GET("/tasks/:id", transfersController.GetTaskStatus)
	}

	// Transfer completion events
	if cfg.Hub != nil {
		router.GET("/events", cfg.Hub.Serve)
	}

	return router
}
