package engine

import (
	"log"
	"math/cmplx"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/mjibson/go-dsp/fft"
)

// Context is the process-wide audio context every analysis node hangs
// off. At most one live context exists at a time: AcquireSharedContext
// returns the current one, creating a fresh context only if none is
// live. A failed or abandoned close is never retried; the next acquire
// simply creates a new context.
type Context struct {
	mu      sync.Mutex
	closed  bool
	scratch []float64
}

var (
	sharedMu  sync.Mutex
	sharedCtx *Context
)

// AcquireSharedContext returns the live shared context, creating one if
// none exists or the previous one was closed. Idempotent.
func AcquireSharedContext() *Context {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedCtx == nil || sharedCtx.isClosed() {
		sharedCtx = &Context{}
		log.Printf("[DEBUG] Created shared audio context")
	}
	return sharedCtx
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the context down. Best-effort: closing an already-closed
// context is a no-op, and callers treat any failure as non-fatal.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.scratch = nil
	log.Printf("[DEBUG] Closed shared audio context")
	return nil
}

// NewAnalyzer creates an analysis node on this context. The node exposes
// live frequency/time-domain sampling of whatever audio passes through
// it without altering the signal.
func (c *Context) NewAnalyzer(fftSize int) (*Analyzer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrContextClosed
	}
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		fftSize = 2048
	}
	return &Analyzer{
		fftSize: fftSize,
		win:     window.Generate(window.TypeHann, fftSize),
	}, nil
}

// Analyzer is the shared analysis node. It is a pure tap: Sample reads
// the current mix without modifying it.
type Analyzer struct {
	fftSize int
	win     []float64
}

// FFTSize returns the node's fixed frequency-resolution setting
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// Sample computes band-grouped frequency magnitudes and a downsampled
// time-domain trace from one window of mixed audio. mix must be fftSize
// samples long; silent sources contribute zeros and simply dilute the
// spectrum, so the output always tracks whichever source is audible.
func (a *Analyzer) Sample(mix []float64, bands, wavePoints int) (freq []float64, wave []float64) {
	if bands <= 0 {
		bands = 64
	}
	if wavePoints <= 0 {
		wavePoints = 256
	}

	windowed := make([]float64, a.fftSize)
	for i := 0; i < a.fftSize && i < len(mix); i++ {
		windowed[i] = mix[i] * a.win[i]
	}

	spectrum := fft.FFTReal(windowed)
	half := a.fftSize / 2
	mags := make([]float64, half)
	for i := 0; i < half; i++ {
		mags[i] = cmplx.Abs(spectrum[i]) / float64(a.fftSize)
	}

	freq = groupBands(mags, bands)

	wave = make([]float64, wavePoints)
	step := float64(len(mix)) / float64(wavePoints)
	for i := 0; i < wavePoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(mix) {
			wave[i] = mix[idx]
		}
	}
	return freq, wave
}

// groupBands folds linear FFT bins into a smaller number of display
// bands, averaging within each band.
func groupBands(mags []float64, bands int) []float64 {
	out := make([]float64, bands)
	if len(mags) == 0 {
		return out
	}
	binsPerBand := float64(len(mags)) / float64(bands)
	for i := 0; i < bands; i++ {
		start := int(float64(i) * binsPerBand)
		end := int(float64(i+1) * binsPerBand)
		if end > len(mags) {
			end = len(mags)
		}
		if start >= end {
			continue
		}
		var sum float64
		for _, m := range mags[start:end] {
			sum += m
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
