package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/calculator/backend/internal/api/handlers"
	"github.com/codyseavey/calculator/backend/internal/metrics"
	"github.com/codyseavey/calculator/backend/internal/middleware"
)

// RouterDeps are the components the HTTP routes are wired to.
type RouterDeps struct {
	Validator      handlers.ImageChecker
	Analyzer       handlers.Analyzer
	Models         []string
	AllowedFormats []string
	MaxPixels      int
	CORSOrigins    []string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		metrics.HTTPMetrics("/metrics"),
		gin.Logger(),
		middleware.Recovery(),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	calculate := handlers.NewCalculateHandler(deps.Validator, deps.Analyzer)
	health := handlers.NewHealthHandler(deps.Models, deps.AllowedFormats, deps.MaxPixels)

	r.GET("/", handlers.Root)
	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/calculate", calculate.Calculate)
	r.POST("/calculate/", calculate.Calculate)
	r.POST("/log-error", handlers.LogError)

	return r
}

// corsConfig allows every origin when the list contains "*". Origins are
// echoed rather than sent as "*" so credentialed requests still work.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
