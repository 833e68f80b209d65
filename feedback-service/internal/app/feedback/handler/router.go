package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedbackhub/pkg/logger"
	"feedbackhub/pkg/metrics"
)

const serviceName = "feedback-service"

// Handlers - все обработчики API
type Handlers struct {
	Ingestion *IngestionHandler
	Reviews   *ReviewHandler
	Products  *ProductHandler
	Analytics *AnalyticsHandler
	Mailbox   *MailboxHandler
}

func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		AllowWildcard:    true,
		MaxAge:           300 * time.Second,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(authMiddleware.Authenticate())
	{
		imports := api.Group("/imports")
		imports.POST("/:source", h.Ingestion.Import)
		imports.GET("/:source/status", h.Ingestion.Status)

		reviews := api.Group("/reviews")
		reviews.GET("", h.Reviews.List)
		reviews.GET("/:review_id", h.Reviews.Get)
		reviews.PATCH("/:review_id/status", h.Reviews.UpdateStatus)

		products := api.Group("/products")
		products.GET("", h.Products.List)
		products.DELETE("/:product_id", h.Products.Delete)
		products.GET("/history", h.Products.History)
		products.POST("/history/:history_id/restore", h.Products.Restore)

		api.GET("/analytics", h.Analytics.Get)

		api.GET("/mailbox/:address/threads", h.Mailbox.Threads)
	}

	return router
}
