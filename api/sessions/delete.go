package sessions

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
)

// Delete destroys the session and every resource it holds
// @Summary      Delete session
// @Description  Stop the visualizer, release staged artifacts, and remove the session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      204 "Session deleted"
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		if err := deps.SessionService.Delete(c.Request.Context(), sessionID); err != nil {
			log.Printf("[ERROR] Failed to delete session %s: %v", sessionID, err)
			respondError(c, err, "Failed to delete session")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
