package sessions

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// Render queues a remix render for the session
// @Summary      Render remix
// @Description  Queue a remix render using the current parameter snapshot. Refused while analysis is incomplete or a render is already running.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      202 {object} object{job_id=int,status=string} "Render queued"
// @Failure      404 {object} object{error=string} "Session not found"
// @Failure      409 {object} object{error=string} "Not ready or render in flight"
// @Router       /api/v1/sessions/{id}/render [post]
func Render(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		job, err := deps.SessionService.StartRender(c.Request.Context(), sessionID)
		if err != nil {
			log.Printf("[WARN] Render refused for session %s: %v", sessionID, err)
			respondError(c, err, "Failed to queue render")
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.ID,
			"status": "queued",
		})
	}
}
