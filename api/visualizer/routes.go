package visualizer

import (
	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// RegisterRoutes registers visualizer routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/sessions/:id/visualizer - Visualizer state
	router.GET("", GetState(deps))

	// GET /api/v1/sessions/:id/visualizer/frames - SSE frame stream
	router.GET("/frames", StreamFrames(deps))

	// POST /api/v1/sessions/:id/visualizer/decks/:deck/play
	router.POST("/decks/:deck/play", Play(deps))

	// POST /api/v1/sessions/:id/visualizer/decks/:deck/pause
	router.POST("/decks/:deck/pause", Pause(deps))

	// POST /api/v1/sessions/:id/visualizer/decks/:deck/seek
	router.POST("/decks/:deck/seek", Seek(deps))

	// PUT /api/v1/sessions/:id/visualizer/bands - Change band count
	router.PUT("/bands", SetBands(deps))

	// DELETE /api/v1/sessions/:id/visualizer - Tear the graph down
	router.DELETE("", Teardown(deps))
}
