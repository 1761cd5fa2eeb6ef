package visualizer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/ledger"
)

func testConfig() Config {
	return Config{FrameRate: 60, FFTSize: 512, Bands: 16}
}

func toneBuffer(seconds float64) *engine.Buffer {
	rate := 44100
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return &engine.Buffer{SampleRate: rate, SourceChannels: 1, Samples: samples}
}

func newTestVisualizer(t *testing.T) (*Visualizer, *ledger.Ledger) {
	t.Helper()
	led := ledger.New()
	v := New("test-session", testConfig(), led)
	t.Cleanup(v.Teardown)
	return v, led
}

func TestLifecycleStates(t *testing.T) {
	v, led := newTestVisualizer(t)
	assert.Equal(t, StateUninitialized, v.State())

	require.NoError(t, v.EnsureGraph())
	assert.Equal(t, StateGraphReady, v.State())
	assert.True(t, led.Occupied(ledger.SlotAudioContext))

	require.NoError(t, v.Start())
	assert.Equal(t, StateAnimating, v.State())
	assert.True(t, led.Occupied(ledger.SlotFrameLoop))

	v.Teardown()
	assert.Equal(t, StateTornDown, v.State())
	assert.False(t, led.Occupied(ledger.SlotFrameLoop))
	assert.False(t, led.Occupied(ledger.SlotAudioContext))
}

func TestSubscribeReceivesFrames(t *testing.T) {
	v, _ := newTestVisualizer(t)
	require.NoError(t, v.AttachDeck(DeckOriginal, toneBuffer(1.0)))
	require.NoError(t, v.Play(DeckOriginal))

	frames, cancel, err := v.Subscribe()
	require.NoError(t, err)
	defer cancel()

	select {
	case frame := <-frames:
		assert.Len(t, frame.Bands, 16)
		assert.NotEmpty(t, frame.Wave)
		total := 0.0
		for _, b := range frame.Bands {
			total += b
		}
		assert.Greater(t, total, 0.0)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestPausedMixProducesFlatFrames(t *testing.T) {
	v, _ := newTestVisualizer(t)
	require.NoError(t, v.AttachDeck(DeckOriginal, toneBuffer(1.0)))

	// Start the loop without playing anything
	require.NoError(t, v.Start())
	frames, cancel, err := v.Subscribe()
	require.NoError(t, err)
	defer cancel()

	select {
	case frame := <-frames:
		for _, b := range frame.Bands {
			assert.InDelta(t, 0.0, b, 1e-12)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestTeardownStopsFramesSynchronously(t *testing.T) {
	led := ledger.New()
	v := New("teardown-session", testConfig(), led)
	require.NoError(t, v.AttachDeck(DeckOriginal, toneBuffer(1.0)))
	require.NoError(t, v.Play(DeckOriginal))

	frames, _, err := v.Subscribe()
	require.NoError(t, err)

	v.Teardown()

	// The subscriber channel must be closed and drained of any frame
	// produced before the loop stopped
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel never closed")
		}
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	v, _ := newTestVisualizer(t)
	require.NoError(t, v.Start())

	v.Teardown()
	assert.NotPanics(t, v.Teardown)

	assert.ErrorIs(t, v.Start(), ErrTornDown)
	assert.ErrorIs(t, v.EnsureGraph(), ErrTornDown)
	_, _, err := v.Subscribe()
	assert.ErrorIs(t, err, ErrTornDown)
	assert.ErrorIs(t, v.Play(DeckOriginal), ErrTornDown)
}

func TestDeckTransport(t *testing.T) {
	v, _ := newTestVisualizer(t)
	require.NoError(t, v.AttachDeck(DeckOriginal, toneBuffer(2.0)))

	pos, playing, err := v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.False(t, playing)
	assert.Zero(t, pos)

	require.NoError(t, v.Seek(DeckOriginal, 1.5))
	pos, _, err = v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, pos, 0.01)

	// Seek clamps to the track bounds
	require.NoError(t, v.Seek(DeckOriginal, 99))
	pos, _, err = v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pos, 0.01)

	require.NoError(t, v.Seek(DeckOriginal, -5))
	pos, _, err = v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.Zero(t, pos)

	require.NoError(t, v.Play(DeckOriginal))
	_, playing, err = v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.True(t, playing)

	require.NoError(t, v.Pause(DeckOriginal))
	_, playing, err = v.DeckPosition(DeckOriginal)
	require.NoError(t, err)
	assert.False(t, playing)
}

func TestTransportErrors(t *testing.T) {
	v, _ := newTestVisualizer(t)

	assert.ErrorIs(t, v.Play("turntable"), ErrUnknownDeck)
	assert.ErrorIs(t, v.Play(DeckRemix), ErrDeckEmpty)
	_, _, err := v.DeckPosition(DeckRemix)
	assert.ErrorIs(t, err, ErrDeckEmpty)
}

func TestSetBandsChangesFrameShape(t *testing.T) {
	v, _ := newTestVisualizer(t)
	require.NoError(t, v.SetBands(8))

	frames, cancel, err := v.Subscribe()
	require.NoError(t, err)
	defer cancel()

	select {
	case frame := <-frames:
		assert.Len(t, frame.Bands, 8)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}
