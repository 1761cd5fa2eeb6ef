package engine

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	frequencystats "github.com/cwbudde/algo-dsp/stats/frequency"
	timestats "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/mjibson/go-dsp/fft"
)

const (
	analysisWindowSize = 1024
	analysisHopSize    = 512

	// WaveformPoints is the fixed length of the static amplitude envelope
	WaveformPoints = 512

	minTempoBPM = 60.0
	maxTempoBPM = 180.0

	// fallback when no rhythmic structure is detectable
	defaultBPM = 120.0
)

var noteNames = []string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// Analyze extracts the feature summary for a decoded buffer: tempo and
// beat grid from a spectral-flux onset envelope, key from pitch-class
// energy, spectral centroid and RMS from the magnitude spectrum, and the
// static waveform envelope.
func (l *Library) Analyze(buf *Buffer) (*Features, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, ErrEmptyBuffer
	}

	spectra := stftMagnitudes(buf.Samples)

	meanMag := meanSpectrum(spectra)
	stats := frequencystats.Calculate(meanMag, float64(buf.SampleRate))

	flux := spectralFlux(spectra)
	frameRate := float64(buf.SampleRate) / float64(analysisHopSize)
	bpm, beatGrid := estimateTempo(flux, frameRate, buf.Duration())

	return &Features{
		BPM:              bpm,
		Key:              estimateKey(meanMag, buf.SampleRate),
		RMSEnergy:        math.Min(1, timestats.RMS(buf.Samples)),
		SpectralCentroid: stats.Centroid,
		DurationSeconds:  buf.Duration(),
		SampleRate:       buf.SampleRate,
		BeatGrid:         beatGrid,
		Waveform:         downsampleEnvelope(buf.Samples, WaveformPoints),
	}, nil
}

// stftMagnitudes returns one-sided magnitude spectra per analysis frame
func stftMagnitudes(samples []float64) [][]float64 {
	win := window.Generate(window.TypeHann, analysisWindowSize)

	var spectra [][]float64
	frame := make([]float64, analysisWindowSize)
	for start := 0; start+analysisWindowSize <= len(samples); start += analysisHopSize {
		for i := 0; i < analysisWindowSize; i++ {
			frame[i] = samples[start+i] * win[i]
		}
		spectrum := fft.FFTReal(frame)
		mag := make([]float64, analysisWindowSize/2+1)
		for i := range mag {
			mag[i] = cmplx.Abs(spectrum[i])
		}
		spectra = append(spectra, mag)
	}

	// Short inputs still get one frame so analysis never comes up empty
	if len(spectra) == 0 && len(samples) > 0 {
		for i := range frame {
			frame[i] = 0
		}
		copy(frame, samples)
		spectrum := fft.FFTReal(frame)
		mag := make([]float64, analysisWindowSize/2+1)
		for i := range mag {
			mag[i] = cmplx.Abs(spectrum[i])
		}
		spectra = append(spectra, mag)
	}

	return spectra
}

func meanSpectrum(spectra [][]float64) []float64 {
	if len(spectra) == 0 {
		return nil
	}
	mean := make([]float64, len(spectra[0]))
	for _, mag := range spectra {
		for i, v := range mag {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(spectra))
	}
	return mean
}

// spectralFlux is the half-wave rectified frame-to-frame spectral change,
// a standard onset strength envelope.
func spectralFlux(spectra [][]float64) []float64 {
	flux := make([]float64, len(spectra))
	for t := 1; t < len(spectra); t++ {
		var sum float64
		for k, v := range spectra[t] {
			if d := v - spectra[t-1][k]; d > 0 {
				sum += d
			}
		}
		flux[t] = sum
	}
	return flux
}

// estimateTempo picks the BPM whose beat-period lag maximizes the onset
// envelope's autocorrelation, then phase-aligns a beat grid to the onset
// peaks. The grid is always non-empty and strictly ascending.
func estimateTempo(flux []float64, frameRate, duration float64) (float64, []float64) {
	minLag := int(60 * frameRate / maxTempoBPM)
	maxLag := int(60 * frameRate / minTempoBPM)

	bpm := defaultBPM
	bestLag := 0
	if minLag >= 1 && maxLag < len(flux) {
		bestScore := 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			var score float64
			for t := 0; t+lag < len(flux); t++ {
				score += flux[t] * flux[t+lag]
			}
			score /= float64(len(flux) - lag)
			if score > bestScore {
				bestScore = score
				bestLag = lag
			}
		}
		if bestScore > 0 && bestLag > 0 {
			bpm = 60 * frameRate / float64(bestLag)
		} else {
			bestLag = 0
		}
	}

	beatPeriod := 60 / bpm

	// Phase: the comb offset collecting the most onset energy
	phase := 0.0
	if bestLag > 0 {
		bestEnergy := -1.0
		for offset := 0; offset < bestLag; offset++ {
			var energy float64
			for t := offset; t < len(flux); t += bestLag {
				energy += flux[t]
			}
			if energy > bestEnergy {
				bestEnergy = energy
				phase = float64(offset) / frameRate
			}
		}
	}

	var grid []float64
	for t := phase; t < duration; t += beatPeriod {
		grid = append(grid, t)
	}
	if len(grid) == 0 {
		grid = []float64{0}
	}
	return bpm, grid
}

// estimateKey folds spectral energy into pitch classes and labels the
// strongest one, with the third interval deciding major versus minor.
func estimateKey(meanMag []float64, sampleRate int) string {
	if len(meanMag) < 2 {
		return "C major"
	}

	var chroma [12]float64
	binHz := float64(sampleRate) / float64(2*(len(meanMag)-1))
	for i := 1; i < len(meanMag); i++ {
		freq := float64(i) * binHz
		if freq < 27.5 || freq > 5000 {
			continue
		}
		pc := int(math.Round(12*math.Log2(freq/440))) % 12
		if pc < 0 {
			pc += 12
		}
		chroma[pc] += meanMag[i]
	}

	root := 0
	for pc := 1; pc < 12; pc++ {
		if chroma[pc] > chroma[root] {
			root = pc
		}
	}

	quality := "major"
	if chroma[(root+3)%12] > chroma[(root+4)%12] {
		quality = "minor"
	}
	return noteNames[root] + " " + quality
}

// downsampleEnvelope reduces the signal to a fixed-length signed peak
// envelope for the static waveform display.
func downsampleEnvelope(samples []float64, points int) []float32 {
	env := make([]float32, points)
	if len(samples) == 0 {
		return env
	}
	binSize := float64(len(samples)) / float64(points)
	for i := 0; i < points; i++ {
		start := int(float64(i) * binSize)
		end := int(float64(i+1) * binSize)
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			continue
		}
		peak := samples[start]
		for _, s := range samples[start:end] {
			if math.Abs(s) > math.Abs(peak) {
				peak = s
			}
		}
		env[i] = float32(math.Max(-1, math.Min(1, peak)))
	}
	return env
}
