package visualizer

import (
	"time"

	"github.com/remixlab/remix-api/internal/services/engine"
)

// DeckID names the two playback elements feeding the shared analyzer
type DeckID string

const (
	DeckOriginal DeckID = "original"
	DeckRemix    DeckID = "remix"
)

// ValidDeck reports whether id names a known deck
func ValidDeck(id DeckID) bool {
	return id == DeckOriginal || id == DeckRemix
}

// deck is one playback element wrapped as a source node. Transport
// advances on the wall clock while playing; a paused deck, or one past
// the end of its buffer, contributes silence to the analyzer mix.
type deck struct {
	buf *engine.Buffer

	playing bool
	posSec  float64   // position when anchor was taken
	anchor  time.Time // wall-clock anchor while playing
}

// positionAt returns the playhead in seconds at the given instant
func (d *deck) positionAt(now time.Time) float64 {
	pos := d.posSec
	if d.playing {
		pos += now.Sub(d.anchor).Seconds()
	}
	if dur := d.buf.Duration(); pos > dur {
		pos = dur
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

func (d *deck) play(now time.Time) {
	if d.playing {
		return
	}
	// Restart from the top when the track already ran out
	if d.posSec >= d.buf.Duration() {
		d.posSec = 0
	}
	d.playing = true
	d.anchor = now
}

func (d *deck) pause(now time.Time) {
	if !d.playing {
		return
	}
	d.posSec = d.positionAt(now)
	d.playing = false
}

func (d *deck) seek(now time.Time, seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if dur := d.buf.Duration(); seconds > dur {
		seconds = dur
	}
	d.posSec = seconds
	d.anchor = now
}

// mixInto adds this deck's current window into mix. Silent decks add
// nothing, which is what keeps the display tracking the active deck
// without any explicit source switching.
func (d *deck) mixInto(now time.Time, mix, scratch []float64) {
	if !d.playing {
		return
	}
	offset := int(d.positionAt(now) * float64(d.buf.SampleRate))
	d.buf.Window(offset, len(mix), scratch)
	for i := range mix {
		mix[i] += scratch[i]
	}
}
