package sessions

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
	"github.com/remixlab/remix-api/internal/services/visualizer"
)

// Download serves the rendered remix as a WAV attachment
// @Summary      Download remix
// @Description  Download the most recently rendered remix as a WAV file
// @Tags         sessions
// @Produce      audio/wav
// @Param        id path string true "Session ID"
// @Success      200 "WAV file attachment"
// @Failure      404 {object} object{error=string} "Session or remix not found"
// @Router       /api/v1/sessions/{id}/download [get]
func Download(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		path, name, err := deps.SessionService.ArtifactPath(c.Request.Context(), sessionID, visualizer.DeckRemix)
		if err != nil {
			respondError(c, err, "Failed to resolve remix artifact")
			return
		}

		log.Printf("[DEBUG] Serving remix download for session %s: %s", sessionID, name)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Header("Content-Type", "audio/wav")
		c.File(path)
	}
}

// Stream serves a deck's artifact with HTTP range support for seeking
// @Summary      Stream deck audio
// @Description  Stream the source or remix audio with range request support. Without a deck segment the original track is served.
// @Tags         sessions
// @Produce      audio/wav
// @Param        id path string true "Session ID"
// @Param        deck path string false "Deck" Enums(original, remix)
// @Param        Range header string false "HTTP Range header for partial content"
// @Success      200 "Full audio content"
// @Success      206 "Partial audio content (range request)"
// @Failure      400 {object} object{error=string} "Unknown deck"
// @Failure      404 {object} object{error=string} "Session or remix not found"
// @Failure      409 {object} object{error=string} "No track staged yet"
// @Router       /api/v1/sessions/{id}/stream/{deck} [get]
func Stream(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		deck := visualizer.DeckID(c.Param("deck"))
		if deck == "" {
			deck = visualizer.DeckOriginal
		}
		if !visualizer.ValidDeck(deck) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown deck"})
			return
		}

		path, _, err := deps.SessionService.ArtifactPath(c.Request.Context(), sessionID, deck)
		if err != nil {
			respondError(c, err, "Failed to resolve deck artifact")
			return
		}

		c.Header("Content-Type", "audio/wav")
		// ServeFile handles Range headers, which is what lets the
		// player seek without re-downloading
		http.ServeFile(c.Writer, c.Request, path)
	}
}
