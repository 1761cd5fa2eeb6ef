package engine

import (
	"io"

	"github.com/remixlab/remix-api/internal/models"
)

// Engine is the audio-processing surface the pipelines consume. The
// Library implementation does the real DSP work; tests substitute fakes.
type Engine interface {
	// Decode reads a supported audio container into a PCM buffer
	Decode(r io.ReadSeeker) (*Buffer, error)

	// Analyze extracts the musical feature summary for a decoded buffer
	Analyze(buf *Buffer) (*Features, error)

	// SynthesizeRemix renders a remixed buffer from the source buffer,
	// its features, and the current parameter snapshot
	SynthesizeRemix(buf *Buffer, features *Features, params models.RemixParams) (*Buffer, error)

	// EncodeWAV serializes a rendered buffer into a portable WAV container
	EncodeWAV(buf *Buffer) ([]byte, error)
}

// Features is the immutable result of analysis for one decoded buffer
type Features struct {
	BPM              float64
	Key              string
	RMSEnergy        float64
	SpectralCentroid float64
	DurationSeconds  float64
	SampleRate       int
	BeatGrid         []float64 // seconds, strictly ascending, non-empty
	Waveform         []float32 // fixed-length amplitude envelope in [-1, 1]
}

// Library is the production Engine implementation
type Library struct{}

// NewLibrary creates the production audio-processing engine
func NewLibrary() *Library {
	return &Library{}
}

var _ Engine = (*Library)(nil)
