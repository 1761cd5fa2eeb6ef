package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/remixlab/remix-api/api/health"
	"github.com/remixlab/remix-api/api/jobs"
	"github.com/remixlab/remix-api/api/sessions"
	"github.com/remixlab/remix-api/api/types"
	"github.com/remixlab/remix-api/api/version"
	"github.com/remixlab/remix-api/api/visualizer"
	"github.com/remixlab/remix-api/pkg/config"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, cfg *config.Config, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		return fmt.Errorf("handler dependencies are nil")
	}
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Swagger documentation
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")

	limit := func(rps, burst int) gin.HandlerFunc {
		return PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, rps, burst)
	}
	if !cfg.RateLimiting.Enabled {
		limit = func(int, int) gin.HandlerFunc {
			return func(c *gin.Context) { c.Next() }
		}
	}

	// Session routes carry uploads, downloads, and streaming, so they
	// get a higher allowance than the control-plane routes
	sessionGroup := v1.Group("/sessions")
	sessionGroup.Use(limit(20, 30))
	sessions.RegisterRoutes(sessionGroup, deps)

	// Visualizer routes include long-lived SSE streams plus bursty
	// transport commands from scrubbing
	vizGroup := v1.Group("/sessions/:id/visualizer")
	vizGroup.Use(limit(20, 40))
	visualizer.RegisterRoutes(vizGroup, deps)

	jobGroup := v1.Group("/jobs")
	jobGroup.Use(limit(10, 20))
	jobs.RegisterRoutes(jobGroup, deps)

	return nil
}
