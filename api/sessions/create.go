package sessions

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// Create handles track upload into a new session
// @Summary      Create a remix session
// @Description  Upload a WAV track; decoding and analysis run in the background
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        track formData file true "WAV audio file"
// @Success      202 {object} object{session=object,job_id=int} "Session created, analysis queued"
// @Failure      400 {object} object{error=string} "Missing or unreadable upload"
// @Failure      500 {object} object{error=string} "Internal server error"
// @Router       /api/v1/sessions [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("track")
		if err != nil {
			log.Printf("[ERROR] Upload missing track file: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Form field 'track' with an audio file is required"})
			return
		}
		defer file.Close()

		session, job, err := deps.SessionService.CreateSession(c.Request.Context(), header.Filename, file)
		if err != nil {
			log.Printf("[ERROR] Failed to create session: %v", err)
			respondError(c, err, "Failed to create session")
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"session": session,
			"job_id":  job.ID,
		})
	}
}

// ReplaceTrack handles uploading a new track into an existing session
// @Summary      Replace the session's track
// @Description  Stage a new upload; analysis for the previous track is superseded
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        track formData file true "WAV audio file"
// @Success      202 {object} object{session=object,job_id=int} "Track staged, analysis queued"
// @Failure      400 {object} object{error=string} "Missing or unreadable upload"
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id}/track [put]
func ReplaceTrack(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		file, header, err := c.Request.FormFile("track")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Form field 'track' with an audio file is required"})
			return
		}
		defer file.Close()

		session, job, err := deps.SessionService.ReplaceTrack(c.Request.Context(), sessionID, header.Filename, file)
		if err != nil {
			log.Printf("[ERROR] Failed to replace track for session %s: %v", sessionID, err)
			respondError(c, err, "Failed to replace track")
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"session": session,
			"job_id":  job.ID,
		})
	}
}
