package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediaget-go/api/handlers"
	"github.com/yourusername/mediaget-go/api/middleware"
	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/domain"
)

// RouterConfig holds what the HTTP API is built from
type RouterConfig struct {
	Manager  *app.TransferManager
	Template *domain.TransferRequest // configured defaults of every transfer
	Logger   *zap.Logger
	LogsDir  string // category logs are served when set
	Version  string
}

// SetupRouter sets up the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	transferHandler := handlers.NewTransferHandler(cfg.Manager, cfg.Template, log)

	healthHandler := handlers.NewHealthHandler(cfg.Version, transferHandler.Busy, cfg.Manager.HistoryEnabled())
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandler.CreateTransfer)
			transfers.GET("", transferHandler.ListTransfers)
			transfers.GET("/stats", transferHandler.GetStats)
			transfers.GET("/:id", transferHandler.GetTransfer)
		}

		if cfg.LogsDir != "" {
			logHandler := handlers.NewLogHandler(cfg.LogsDir)
			wsHandler := handlers.NewLogWebSocketHandler(cfg.LogsDir, log)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
				logs.GET("/:category/stream", wsHandler.HandleWebSocket)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
