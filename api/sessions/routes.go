package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// RegisterRoutes registers session routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// POST /api/v1/sessions - Upload a track into a new session
	router.POST("", Create(deps))

	// PUT /api/v1/sessions/:id/track - Replace the session's track
	router.PUT("/:id/track", ReplaceTrack(deps))

	// GET /api/v1/sessions/:id - Session state
	router.GET("/:id", Get(deps))

	// GET /api/v1/sessions/:id/features - Acoustic feature summary
	router.GET("/:id/features", GetFeatures(deps))

	// GET /api/v1/sessions/:id/waveform - Static waveform peaks
	router.GET("/:id/waveform", GetWaveform(deps))

	// PATCH /api/v1/sessions/:id/params - Edit remix parameters
	router.PATCH("/:id/params", UpdateParams(deps))

	// POST /api/v1/sessions/:id/render - Queue a remix render
	router.POST("/:id/render", Render(deps))

	// GET /api/v1/sessions/:id/download - Download the rendered remix
	router.GET("/:id/download", Download(deps))

	// GET /api/v1/sessions/:id/stream[/:deck] - Stream deck audio with seeking
	router.GET("/:id/stream", Stream(deps))
	router.GET("/:id/stream/:deck", Stream(deps))

	// POST /api/v1/sessions/:id/share - Share the rendered remix
	router.POST("/:id/share", Share(deps))

	// DELETE /api/v1/sessions/:id - Destroy the session
	router.DELETE("/:id", Delete(deps))
}
