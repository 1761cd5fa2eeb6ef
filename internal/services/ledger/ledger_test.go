package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageReleasesExactlyOnce(t *testing.T) {
	l := New()

	released := 0
	l.Stage(SlotSourceArtifact, func() { released++ })

	assert.True(t, l.Occupied(SlotSourceArtifact))
	assert.Equal(t, 0, released)

	l.Release(SlotSourceArtifact)
	assert.Equal(t, 1, released)
	assert.False(t, l.Occupied(SlotSourceArtifact))

	// Further releases are no-ops
	l.Release(SlotSourceArtifact)
	l.Release(SlotSourceArtifact)
	assert.Equal(t, 1, released)
}

func TestStageEvictsPreviousOccupant(t *testing.T) {
	l := New()

	var order []string
	l.Stage(SlotRemixArtifact, func() { order = append(order, "first") })
	l.Stage(SlotRemixArtifact, func() { order = append(order, "second") })

	// Restaging released the first occupant immediately
	assert.Equal(t, []string{"first"}, order)

	l.Release(SlotRemixArtifact)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestReleaseAllOrder(t *testing.T) {
	l := New()

	var order []Slot
	for _, slot := range []Slot{SlotAudioContext, SlotSourceArtifact, SlotFrameLoop, SlotRemixArtifact} {
		s := slot
		l.Stage(s, func() { order = append(order, s) })
	}

	l.ReleaseAll()
	assert.Equal(t, []Slot{SlotFrameLoop, SlotRemixArtifact, SlotSourceArtifact, SlotAudioContext}, order)

	// A second pass releases nothing
	l.ReleaseAll()
	assert.Len(t, order, 4)
}

func TestReleaseEmptySlotIsNoop(t *testing.T) {
	l := New()
	assert.NotPanics(t, func() {
		l.Release(SlotFrameLoop)
		l.ReleaseAll()
	})
}

func TestStageCallbackMayStageOtherSlots(t *testing.T) {
	l := New()

	staged := false
	l.Stage(SlotSourceArtifact, func() {
		l.Stage(SlotRemixArtifact, func() { staged = true })
	})

	// Eviction runs outside the lock, so staging from a callback works
	l.Stage(SlotSourceArtifact, func() {})
	assert.True(t, l.Occupied(SlotRemixArtifact))

	l.Release(SlotRemixArtifact)
	assert.True(t, staged)
}
