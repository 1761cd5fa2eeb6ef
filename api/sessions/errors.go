package sessions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/internal/services/sessions"
	"github.com/remixlab/remix-api/internal/services/visualizer"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, sessions.ErrNoRemixArtifact):
		c.JSON(http.StatusNotFound, gin.H{"error": "No remix has been rendered yet"})
	case errors.Is(err, sessions.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Session analysis has not completed"})
	case errors.Is(err, sessions.ErrRenderInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "A render is already in progress"})
	case errors.Is(err, visualizer.ErrUnknownDeck), errors.Is(err, visualizer.ErrDeckEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
