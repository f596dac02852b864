package api

import (
	"siteqa-reports/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, jwtSecret string) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware())

	// API routes
	api := router.Group("/api")
	{
		reports := api.Group("/reports")
		reports.Use(middleware.AuthenticateUser(jwtSecret))
		{
			reports.POST("", handlers.CreateReportHandler)
			reports.GET("", handlers.ListReportsHandler)
			reports.GET("/:id", handlers.GetReportHandler)
			reports.POST("/:id/retry", handlers.RetryReportHandler)
			reports.DELETE("/:id", handlers.DeleteReportHandler)
			reports.GET("/:id/download", handlers.DownloadReportHandler)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Counter snapshot
	router.GET("/metrics", handlers.GetMetricsHandler)

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
