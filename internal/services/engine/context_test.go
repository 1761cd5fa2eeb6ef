package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedContextReopensAfterClose(t *testing.T) {
	first := AcquireSharedContext()
	require.NoError(t, first.Close())

	// Close is idempotent
	assert.NoError(t, first.Close())

	second := AcquireSharedContext()
	assert.NotSame(t, first, second)

	_, err := first.NewAnalyzer(1024)
	assert.ErrorIs(t, err, ErrContextClosed)

	analyzer, err := second.NewAnalyzer(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, analyzer.FFTSize())

	require.NoError(t, second.Close())
}

func TestAnalyzerSample(t *testing.T) {
	ctx := AcquireSharedContext()
	defer ctx.Close()

	analyzer, err := ctx.NewAnalyzer(2048)
	require.NoError(t, err)

	mix := make([]float64, 2048)
	for i := range mix {
		mix[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}

	freq, wave := analyzer.Sample(mix, 64, 128)
	assert.Len(t, freq, 64)
	assert.Len(t, wave, 128)

	total := 0.0
	for _, b := range freq {
		assert.GreaterOrEqual(t, b, 0.0)
		total += b
	}
	assert.Greater(t, total, 0.0)
}

func TestAnalyzerSampleSilence(t *testing.T) {
	ctx := AcquireSharedContext()
	defer ctx.Close()

	analyzer, err := ctx.NewAnalyzer(512)
	require.NoError(t, err)

	freq, wave := analyzer.Sample(make([]float64, 512), 16, 32)
	for _, b := range freq {
		assert.InDelta(t, 0.0, b, 1e-12)
	}
	for _, w := range wave {
		assert.InDelta(t, 0.0, w, 1e-12)
	}
}
