package engine

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/models"
)

func testFeatures(buf *Buffer) *Features {
	return &Features{
		BPM:             120,
		Key:             "A minor",
		RMSEnergy:       0.3,
		DurationSeconds: buf.Duration(),
		SampleRate:      buf.SampleRate,
		BeatGrid:        []float64{0, 0.5, 1.0, 1.5},
	}
}

func TestSynthesizeTempoShiftScalesDuration(t *testing.T) {
	lib := NewLibrary()
	src := sineBuffer(440, 2.0, 44100)
	features := testFeatures(src)

	tests := []struct {
		name       string
		tempoShift float64
		wantDur    float64
	}{
		{"faster shortens", 1.25, 2.0 / 1.25},
		{"slower lengthens", 0.8, 2.0 / 0.8},
		{"unity keeps duration", 1.0, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := models.DefaultRemixParams()
			params.TempoShift = tt.tempoShift

			out, err := lib.SynthesizeRemix(src, features, params)
			require.NoError(t, err)

			assert.Equal(t, src.SampleRate, out.SampleRate)
			// Resampler edges make the length slightly inexact
			assert.InDelta(t, tt.wantDur, out.Duration(), 0.05)
		})
	}
}

func TestSynthesizeEncodeDecodeRoundTrip(t *testing.T) {
	lib := NewLibrary()
	src := sineBuffer(440, 2.0, 44100)
	features := testFeatures(src)

	params := models.DefaultRemixParams()
	params.TempoShift = 1.25

	out, err := lib.SynthesizeRemix(src, features, params)
	require.NoError(t, err)

	// The encoded artifact carries the shifted duration through a
	// full decode, the way the download endpoint will serve it
	data, err := lib.EncodeWAV(out)
	require.NoError(t, err)

	decoded, err := lib.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, src.SampleRate, decoded.SampleRate)
	assert.InDelta(t, src.Duration()/params.TempoShift, decoded.Duration(), 0.05)
}

func TestSynthesizeAllStyles(t *testing.T) {
	lib := NewLibrary()
	src := clickTrack(120, 1.0, 44100)
	features := testFeatures(src)

	for _, style := range []models.RemixStyle{models.StyleClub, models.StyleChill, models.StyleBreaks, models.StyleAcid} {
		t.Run(string(style), func(t *testing.T) {
			params := models.RemixParams{
				Style:       style,
				TempoShift:  1.0,
				Intensity:   0.8,
				EffectDepth: 0.7,
			}

			out, err := lib.SynthesizeRemix(src, features, params)
			require.NoError(t, err)
			require.NotEmpty(t, out.Samples)

			peak := 0.0
			for _, s := range out.Samples {
				if a := math.Abs(s); a > peak {
					peak = a
				}
			}
			assert.LessOrEqual(t, peak, 0.995)
		})
	}
}

func TestSynthesizeRequiresAnalysis(t *testing.T) {
	lib := NewLibrary()
	src := sineBuffer(440, 0.2, 44100)

	_, err := lib.SynthesizeRemix(src, nil, models.DefaultRemixParams())
	assert.ErrorIs(t, err, ErrMissingAnalysis)
}

func TestSynthesizeEmptyBuffer(t *testing.T) {
	lib := NewLibrary()
	_, err := lib.SynthesizeRemix(&Buffer{SampleRate: 44100}, &Features{}, models.DefaultRemixParams())
	assert.ErrorIs(t, err, ErrEmptyBuffer)
}
