package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jmemijeabadi/wallmartofertasmx/api/handler"
	"github.com/Jmemijeabadi/wallmartofertasmx/api/middleware"
	"github.com/Jmemijeabadi/wallmartofertasmx/config"
	"github.com/Jmemijeabadi/wallmartofertasmx/pipeline"
	"github.com/Jmemijeabadi/wallmartofertasmx/renderer"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *pipeline.Pipeline, r *renderer.Renderer, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	v1 := router.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(r, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Product search
	protected.POST("/buscar", handler.Buscar(p))

	// Downloadable artifacts (same pipeline, tabular projections)
	protected.POST("/export/:format", handler.Export(p))

	return router
}
