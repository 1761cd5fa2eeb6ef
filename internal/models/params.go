package models

import "fmt"

// RemixStyle is the closed set of remix styles
type RemixStyle string

const (
	StyleClub   RemixStyle = "club"
	StyleChill  RemixStyle = "chill"
	StyleBreaks RemixStyle = "breaks"
	StyleAcid   RemixStyle = "acid"
)

// Parameter bounds. Values come from bounded controls so these are the
// only validation the store performs.
const (
	MinTempoShift = 0.7
	MaxTempoShift = 1.35
)

// RemixParams is an immutable snapshot of the remix configuration.
// Edits produce a whole new snapshot via Merge; consumers never see a
// partially updated value.
type RemixParams struct {
	Style       RemixStyle `json:"style"`
	TempoShift  float64    `json:"tempo_shift"`
	Intensity   float64    `json:"intensity"`
	EffectDepth float64    `json:"effect_depth"`
}

// DefaultRemixParams returns the snapshot a fresh session starts with
func DefaultRemixParams() RemixParams {
	return RemixParams{
		Style:       StyleClub,
		TempoShift:  1.0,
		Intensity:   0.5,
		EffectDepth: 0.5,
	}
}

// RemixParamsPatch carries the non-null fields of a parameter edit
type RemixParamsPatch struct {
	Style       *RemixStyle `json:"style,omitempty"`
	TempoShift  *float64    `json:"tempo_shift,omitempty"`
	Intensity   *float64    `json:"intensity,omitempty"`
	EffectDepth *float64    `json:"effect_depth,omitempty"`
}

// Validate checks the patch against the declared parameter ranges
func (p *RemixParamsPatch) Validate() error {
	if p.Style != nil {
		switch *p.Style {
		case StyleClub, StyleChill, StyleBreaks, StyleAcid:
		default:
			return fmt.Errorf("unknown remix style: %q", *p.Style)
		}
	}
	if p.TempoShift != nil && (*p.TempoShift < MinTempoShift || *p.TempoShift > MaxTempoShift) {
		return fmt.Errorf("tempo shift must be in [%g, %g]: %g", MinTempoShift, MaxTempoShift, *p.TempoShift)
	}
	if p.Intensity != nil && (*p.Intensity < 0 || *p.Intensity > 1) {
		return fmt.Errorf("intensity must be in [0, 1]: %g", *p.Intensity)
	}
	if p.EffectDepth != nil && (*p.EffectDepth < 0 || *p.EffectDepth > 1) {
		return fmt.Errorf("effect depth must be in [0, 1]: %g", *p.EffectDepth)
	}
	return nil
}

// Merge produces a new snapshot with the patch's non-null fields applied
// over the receiver. The receiver is not modified.
func (r RemixParams) Merge(p RemixParamsPatch) RemixParams {
	next := r
	if p.Style != nil {
		next.Style = *p.Style
	}
	if p.TempoShift != nil {
		next.TempoShift = *p.TempoShift
	}
	if p.Intensity != nil {
		next.Intensity = *p.Intensity
	}
	if p.EffectDepth != nil {
		next.EffectDepth = *p.EffectDepth
	}
	return next
}
