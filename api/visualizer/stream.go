package visualizer

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
	svc "github.com/remixlab/remix-api/internal/services/sessions"
	viz "github.com/remixlab/remix-api/internal/services/visualizer"
)

func lookup(c *gin.Context, deps *types.Dependencies) (*viz.Visualizer, bool) {
	v, err := deps.SessionService.Visualizer(c.Param("id"))
	if err != nil {
		if errors.Is(err, svc.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access visualizer"})
		}
		return nil, false
	}
	return v, true
}

// GetState reports the visualizer lifecycle state and deck transport
// @Summary      Get visualizer state
// @Tags         visualizer
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} object{state=string,decks=object}
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id}/visualizer [get]
func GetState(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := lookup(c, deps)
		if !ok {
			return
		}

		decks := gin.H{}
		for _, id := range []viz.DeckID{viz.DeckOriginal, viz.DeckRemix} {
			pos, playing, err := v.DeckPosition(id)
			if err != nil {
				continue
			}
			decks[string(id)] = gin.H{"position": pos, "playing": playing}
		}

		c.JSON(http.StatusOK, gin.H{
			"state": v.State(),
			"decks": decks,
		})
	}
}

// StreamFrames streams analyzer frames to the client over SSE
// @Summary      Stream visualizer frames
// @Description  Server-sent events; one event per animation frame with band magnitudes and a wave trace
// @Tags         visualizer
// @Produce      text/event-stream
// @Param        id path string true "Session ID"
// @Success      200 "SSE stream of frames"
// @Failure      404 {object} object{error=string} "Session not found"
// @Failure      410 {object} object{error=string} "Visualizer torn down"
// @Router       /api/v1/sessions/{id}/visualizer/frames [get]
func StreamFrames(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := lookup(c, deps)
		if !ok {
			return
		}

		frames, cancel, err := v.Subscribe()
		if err != nil {
			c.JSON(http.StatusGone, gin.H{"error": "Visualizer has been torn down"})
			return
		}
		defer cancel()

		log.Printf("[DEBUG] Frame stream opened for session %s", c.Param("id"))
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		clientGone := c.Request.Context().Done()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-clientGone:
				return false
			case frame, ok := <-frames:
				if !ok {
					// Teardown closed the subscription
					return false
				}
				c.SSEvent("frame", frame)
				return true
			}
		})
	}
}
