package sessions

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
	"github.com/remixlab/remix-api/internal/models"
)

// UpdateParams merges a partial parameter edit into the session
// @Summary      Update remix parameters
// @Description  Merge the provided fields into a new parameter snapshot; omitted fields keep their values
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        patch body models.RemixParamsPatch true "Fields to change"
// @Success      200 {object} object{session=object}
// @Failure      400 {object} object{error=string} "Out-of-range or unknown value"
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id}/params [patch]
func UpdateParams(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.RemixParamsPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := patch.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session, err := deps.SessionService.UpdateParams(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, err, "Failed to update parameters")
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}
