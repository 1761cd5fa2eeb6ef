package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
	svc "github.com/remixlab/remix-api/internal/services/sessions"
)

// Share exports the rendered remix for sharing
// @Summary      Share remix
// @Description  Export the remix to the share directory, falling back to a copyable download reference. With no remix rendered the call is a no-op.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} object{method=string} "Share outcome"
// @Success      204 "Nothing to share"
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id}/share [post]
func Share(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := deps.SessionService.Share(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, svc.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
				return
			}
			respondError(c, err, "Failed to share remix")
			return
		}

		if result.Method == "none" {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
