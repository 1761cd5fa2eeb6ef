package sessions

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// Get returns the session state
// @Summary      Get session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} object{session=object}
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := deps.SessionService.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch session")
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

// GetFeatures returns the extracted feature summary
// @Summary      Get feature summary
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} object{features=object,beat_grid=[]number}
// @Failure      404 {object} object{error=string} "Session not found"
// @Failure      409 {object} object{error=string} "Analysis not complete"
// @Router       /api/v1/sessions/{id}/features [get]
func GetFeatures(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		summary, err := deps.SessionService.GetFeatureSummary(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, err, "Failed to fetch features")
			return
		}

		grid, err := summary.BeatGrid()
		if err != nil {
			log.Printf("[ERROR] Corrupt beat grid for session %s: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode beat grid"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"features":  summary,
			"beat_grid": grid,
		})
	}
}

// GetWaveform returns the static waveform peaks
// @Summary      Get waveform peaks
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} object{peaks=[]number,resolution=int,duration=number}
// @Failure      404 {object} object{error=string} "Session not found"
// @Failure      409 {object} object{error=string} "Analysis not complete"
// @Router       /api/v1/sessions/{id}/waveform [get]
func GetWaveform(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		waveform, err := deps.SessionService.GetWaveform(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, err, "Failed to fetch waveform")
			return
		}

		peaks, err := waveform.Peaks()
		if err != nil {
			log.Printf("[ERROR] Corrupt waveform for session %s: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode waveform"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"peaks":       peaks,
			"resolution":  waveform.Resolution,
			"duration":    waveform.Duration,
			"sample_rate": waveform.SampleRate,
		})
	}
}
