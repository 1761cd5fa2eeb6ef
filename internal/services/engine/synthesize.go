package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects"
	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"
	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"
	"github.com/cwbudde/algo-dsp/dsp/resample"
	timestats "github.com/cwbudde/algo-dsp/stats/time"

	"github.com/remixlab/remix-api/internal/models"
)

// SynthesizeRemix renders a remixed buffer: the tempo shift is applied by
// polyphase resampling (output duration = input / tempoShift at the same
// nominal sample rate), then the style's effect chain runs over the
// result with intensity and effectDepth scaling the chain parameters.
func (l *Library) SynthesizeRemix(buf *Buffer, features *Features, params models.RemixParams) (*Buffer, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, ErrEmptyBuffer
	}
	if features == nil {
		return nil, ErrMissingAnalysis
	}

	rate := float64(buf.SampleRate)

	out := append([]float64(nil), buf.Samples...)
	if math.Abs(params.TempoShift-1.0) > 1e-9 {
		r, err := resample.NewForRates(rate, rate/params.TempoShift)
		if err != nil {
			return nil, fmt.Errorf("configuring tempo shift %g: %w", params.TempoShift, err)
		}
		out = r.Process(out)
	}

	if err := applyStyleChain(out, rate, features, params); err != nil {
		return nil, err
	}

	// Tame any clipping the chain introduced
	if peak := timestats.Peak(out); peak > 0.99 {
		gain := 0.99 / peak
		for i := range out {
			out[i] *= gain
		}
	}

	return &Buffer{
		SampleRate:     buf.SampleRate,
		SourceChannels: 1,
		Samples:        out,
	}, nil
}

func applyStyleChain(samples []float64, rate float64, features *Features, params models.RemixParams) error {
	intensity := params.Intensity
	depth := params.EffectDepth

	bpm := features.BPM
	if bpm <= 0 {
		bpm = defaultBPM
	}

	switch params.Style {
	case models.StyleClub:
		// Eighth-note feedback delay plus light saturation
		delay, err := effects.NewDelay(rate)
		if err != nil {
			return fmt.Errorf("building club chain: %w", err)
		}
		if err := delay.SetTime(clamp(30/bpm, 0.001, 2)); err != nil {
			return fmt.Errorf("building club chain: %w", err)
		}
		if err := delay.SetFeedback(clamp(0.2+0.5*intensity, 0, 0.99)); err != nil {
			return fmt.Errorf("building club chain: %w", err)
		}
		if err := delay.SetMix(0.15 + 0.35*depth); err != nil {
			return fmt.Errorf("building club chain: %w", err)
		}
		delay.ProcessInPlace(samples)

		dist, err := effects.NewDistortion(rate,
			effects.WithDistortionMode(effects.DistortionModeTanh),
			effects.WithDistortionDrive(1+2*intensity),
			effects.WithDistortionMix(0.3*depth),
		)
		if err != nil {
			return fmt.Errorf("building club chain: %w", err)
		}
		dist.ProcessInPlace(samples)

	case models.StyleChill:
		rev, err := reverb.NewFDNReverb(rate)
		if err != nil {
			return fmt.Errorf("building chill chain: %w", err)
		}
		if err := rev.SetWet(clamp(0.2+0.6*depth, 0, 1)); err != nil {
			return fmt.Errorf("building chill chain: %w", err)
		}
		if err := rev.SetDry(clamp(1-0.3*depth, 0, 1)); err != nil {
			return fmt.Errorf("building chill chain: %w", err)
		}
		if err := rev.SetRT60(0.8 + 2.2*intensity); err != nil {
			return fmt.Errorf("building chill chain: %w", err)
		}
		rev.ProcessInPlace(samples)

		trem, err := modulation.NewTremolo(rate,
			modulation.WithTremoloRateHz(0.5+1.5*intensity),
			modulation.WithTremoloDepth(clamp(0.3+0.5*depth, 0, 1)),
		)
		if err != nil {
			return fmt.Errorf("building chill chain: %w", err)
		}
		if err := trem.ProcessInPlace(samples); err != nil {
			return fmt.Errorf("applying chill chain: %w", err)
		}

	case models.StyleBreaks:
		crusher, err := effects.NewBitCrusher(rate,
			effects.WithBitCrusherBitDepth(clamp(12-6*depth, 1, 32)),
			effects.WithBitCrusherDownsample(1+int(3*intensity)),
			effects.WithBitCrusherMix(clamp(0.3+0.5*depth, 0, 1)),
		)
		if err != nil {
			return fmt.Errorf("building breaks chain: %w", err)
		}
		crusher.ProcessInPlace(samples)

		delay, err := effects.NewDelay(rate)
		if err != nil {
			return fmt.Errorf("building breaks chain: %w", err)
		}
		if err := delay.SetTime(clamp(15/bpm, 0.001, 2)); err != nil {
			return fmt.Errorf("building breaks chain: %w", err)
		}
		if err := delay.SetFeedback(clamp(0.4*intensity, 0, 0.99)); err != nil {
			return fmt.Errorf("building breaks chain: %w", err)
		}
		if err := delay.SetMix(0.2 * depth); err != nil {
			return fmt.Errorf("building breaks chain: %w", err)
		}
		delay.ProcessInPlace(samples)

	case models.StyleAcid:
		dist, err := effects.NewDistortion(rate,
			effects.WithDistortionMode(effects.DistortionModeSoftClip),
			effects.WithDistortionDrive(2+6*intensity),
			effects.WithDistortionMix(clamp(0.4+0.4*depth, 0, 1)),
		)
		if err != nil {
			return fmt.Errorf("building acid chain: %w", err)
		}
		dist.ProcessInPlace(samples)

		trem, err := modulation.NewTremolo(rate,
			modulation.WithTremoloRateHz(4+8*intensity),
			modulation.WithTremoloDepth(clamp(0.4+0.6*depth, 0, 1)),
		)
		if err != nil {
			return fmt.Errorf("building acid chain: %w", err)
		}
		if err := trem.ProcessInPlace(samples); err != nil {
			return fmt.Errorf("applying acid chain: %w", err)
		}

	default:
		return fmt.Errorf("unknown remix style: %q", params.Style)
	}

	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
