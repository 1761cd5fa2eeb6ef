package ledger

import (
	"log"
	"sync"
)

// Slot identifies a single-owner resource tracked by the ledger
type Slot string

const (
	// SlotSourceArtifact owns the staged upload file for the original track
	SlotSourceArtifact Slot = "source_artifact"
	// SlotRemixArtifact owns the rendered remix file
	SlotRemixArtifact Slot = "remix_artifact"
	// SlotFrameLoop owns the visualizer's frame loop cancellation handle
	SlotFrameLoop Slot = "frame_loop"
	// SlotAudioContext owns the shared audio context teardown handle
	SlotAudioContext Slot = "audio_context"
)

// releaseOrder is the fixed order ReleaseAll walks the slots in:
// the frame loop stops before the artifacts it may be reading go away,
// and the audio context closes last.
var releaseOrder = []Slot{
	SlotFrameLoop,
	SlotRemixArtifact,
	SlotSourceArtifact,
	SlotAudioContext,
}

// Ledger tracks the lifetime of every native resource a session creates
// and guarantees exactly-once release per staged value. The ledger is the
// sole owner of each slot: replacing a slot's value always releases the
// previous occupant first, and no occupant is ever released twice.
type Ledger struct {
	mu    sync.Mutex
	slots map[Slot]func()
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		slots: make(map[Slot]func()),
	}
}

// Stage stores release as the owner of slot, first releasing any prior
// occupant. The prior release callback runs outside the ledger lock so a
// callback may stage into other slots without deadlocking, but by the
// time Stage returns the old occupant is released and the new one owned.
func (l *Ledger) Stage(slot Slot, release func()) {
	l.mu.Lock()
	prev := l.slots[slot]
	l.slots[slot] = release
	l.mu.Unlock()

	if prev != nil {
		log.Printf("[DEBUG] Ledger: releasing previous occupant of slot %s", slot)
		prev()
	}
}

// Release releases and clears slot. Releasing an empty slot is a no-op,
// which makes teardown paths idempotent.
func (l *Ledger) Release(slot Slot) {
	l.mu.Lock()
	prev := l.slots[slot]
	delete(l.slots, slot)
	l.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Occupied reports whether slot currently holds a value
func (l *Ledger) Occupied(slot Slot) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.slots[slot]
	return ok
}

// ReleaseAll releases every occupied slot in the fixed teardown order
func (l *Ledger) ReleaseAll() {
	for _, slot := range releaseOrder {
		l.Release(slot)
	}
}
