package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/api/handlers"
	"github.com/yourusername/mediafetch/api/middleware"
	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/events"
	"github.com/yourusername/mediafetch/pkg/logger"
)

// RouterDeps holds everything the HTTP surface talks to
type RouterDeps struct {
	Jobs        *app.JobManager
	Broadcaster *events.Broadcaster
	Logger      *zap.Logger
	MultiLogger *logger.MultiLogger // optional; server errors also go to its error log
	LogsDir     string              // enables /api/v1/logs
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(deps.Logger, deps.MultiLogger))
	router.Use(middleware.Recovery(deps.Logger, deps.MultiLogger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Jobs, deps.Broadcaster)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Event channel
	eventsHandler := handlers.NewEventsHandler(deps.Broadcaster, deps.Jobs, deps.Logger)
	router.GET("/ws", eventsHandler.HandleWebSocket)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		batchHandler := handlers.NewBatchHandler(deps.Jobs, deps.Logger)
		batches := v1.Group("/batches")
		{
			batches.POST("", batchHandler.SubmitBatch)
			batches.GET("", batchHandler.ListBatches)
			batches.GET("/:id", batchHandler.GetBatch)
			batches.POST("/:id/cancel", batchHandler.CancelBatch)
		}

		if deps.LogsDir != "" {
			logHandler := handlers.NewLogHandler(deps.LogsDir)
			logs := v1.Group("/logs")
			{
				logs.GET("", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "not found", Code: "not_found"})
	})

	return router
}
