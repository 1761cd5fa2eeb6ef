package visualizer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remixlab/remix-api/api/types"
	viz "github.com/remixlab/remix-api/internal/services/visualizer"
)

func transportError(c *gin.Context, err error) {
	switch err {
	case viz.ErrUnknownDeck:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown deck"})
	case viz.ErrDeckEmpty:
		c.JSON(http.StatusConflict, gin.H{"error": "Deck has no audio loaded"})
	case viz.ErrTornDown:
		c.JSON(http.StatusGone, gin.H{"error": "Visualizer has been torn down"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transport command failed"})
	}
}

// Play starts playback on a deck
// @Summary      Play deck
// @Tags         visualizer
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        deck path string true "Deck" Enums(original, remix)
// @Success      200 {object} object{deck=string,playing=bool}
// @Failure      400 {object} object{error=string} "Unknown deck"
// @Failure      409 {object} object{error=string} "Deck empty"
// @Router       /api/v1/sessions/{id}/visualizer/decks/{deck}/play [post]
func Play(deps *types.Dependencies) gin.HandlerFunc {
	return transport(deps, func(v *viz.Visualizer, deck viz.DeckID, _ float64) error {
		return v.Play(deck)
	}, false)
}

// Pause pauses playback on a deck
// @Summary      Pause deck
// @Tags         visualizer
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        deck path string true "Deck" Enums(original, remix)
// @Success      200 {object} object{deck=string,playing=bool}
// @Router       /api/v1/sessions/{id}/visualizer/decks/{deck}/pause [post]
func Pause(deps *types.Dependencies) gin.HandlerFunc {
	return transport(deps, func(v *viz.Visualizer, deck viz.DeckID, _ float64) error {
		return v.Pause(deck)
	}, false)
}

// Seek moves a deck's playhead
// @Summary      Seek deck
// @Tags         visualizer
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        deck path string true "Deck" Enums(original, remix)
// @Param        body body object{position=number} true "Target position in seconds"
// @Success      200 {object} object{deck=string,position=number}
// @Router       /api/v1/sessions/{id}/visualizer/decks/{deck}/seek [post]
func Seek(deps *types.Dependencies) gin.HandlerFunc {
	return transport(deps, func(v *viz.Visualizer, deck viz.DeckID, pos float64) error {
		return v.Seek(deck, pos)
	}, true)
}

type seekRequest struct {
	Position float64 `json:"position"`
}

func transport(deps *types.Dependencies, op func(*viz.Visualizer, viz.DeckID, float64) error, wantsBody bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := lookup(c, deps)
		if !ok {
			return
		}
		deck := viz.DeckID(c.Param("deck"))

		var req seekRequest
		if wantsBody {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		if err := op(v, deck, req.Position); err != nil {
			transportError(c, err)
			return
		}

		pos, playing, err := v.DeckPosition(deck)
		if err != nil {
			transportError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"deck":     deck,
			"position": pos,
			"playing":  playing,
		})
	}
}

// SetBands changes the frame band resolution
// @Summary      Set band count
// @Tags         visualizer
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        body body object{bands=int} true "Number of frequency bands"
// @Success      200 {object} object{bands=int}
// @Router       /api/v1/sessions/{id}/visualizer/bands [put]
func SetBands(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := lookup(c, deps)
		if !ok {
			return
		}

		var req struct {
			Bands int `json:"bands" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := v.SetBands(req.Bands); err != nil {
			transportError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bands": req.Bands})
	}
}

// Teardown stops the frame loop and releases the audio graph
// @Summary      Tear down visualizer
// @Description  Stops the frame loop synchronously; open frame streams end, and later commands start a fresh visualizer
// @Tags         visualizer
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      204 "Torn down"
// @Failure      404 {object} object{error=string} "Session not found"
// @Router       /api/v1/sessions/{id}/visualizer [delete]
func Teardown(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := lookup(c, deps)
		if !ok {
			return
		}
		v.Teardown()
		c.Status(http.StatusNoContent)
	}
}
