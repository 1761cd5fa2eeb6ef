package jobs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remixlab/remix-api/api/types"
	svc "github.com/remixlab/remix-api/internal/services/jobs"
)

// Get returns the state of a background job
// @Summary      Get job status
// @Description  Poll the state of an analysis or render job
// @Tags         jobs
// @Produce      json
// @Param        id path int true "Job ID"
// @Success      200 {object} object{job=object}
// @Failure      400 {object} object{error=string} "Invalid job ID"
// @Failure      404 {object} object{error=string} "Job not found"
// @Router       /api/v1/jobs/{id} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), uint(jobID))
		if err != nil {
			if errors.Is(err, svc.ErrJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"job": job})
	}
}
