package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/skychart-api/internal/logging"
	"go.ngs.io/skychart-api/internal/observability"
	"go.ngs.io/skychart-api/internal/usecase"
)

// RouterConfig carries the router's optional collaborators. Empty
// AllowedOrigins allows all origins, for CORS and stream upgrades alike. A non-nil Metrics instruments every route
// and serves /metrics.
type RouterConfig struct {
	AllowedOrigins []string
	Logger         logging.Logger
	Metrics        *observability.Collector
	StreamInterval time.Duration
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(skyChartUC *usecase.SkyChartUseCase, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(skyChartUC, cfg.Logger, cfg.StreamInterval, cfg.AllowedOrigins)

	// API v1 routes.
	v1 := router.Group("/v1")

	sky := v1.Group("/sky")
	sky.GET("", handler.GetSky)
	sky.GET("/chart", handler.GetChartImage)
	sky.GET("/track", handler.GetTrack)
	sky.GET("/stream", handler.StreamSky)

	charts := v1.Group("/charts")
	charts.GET("", handler.ListCharts)
	charts.GET("/:id", handler.GetChart)

	v1.GET("/bodies", handler.GetBodies)
	v1.GET("/locations", handler.GetLocations)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
