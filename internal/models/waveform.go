package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Waveform is the static downsampled amplitude envelope for a session's
// source track, used for the one-time waveform display. Rewritten only
// when a new ingestion succeeds.
type Waveform struct {
	gorm.Model
	SessionID  string  `json:"session_id" gorm:"type:uuid;not null;uniqueIndex"`
	PeaksData  []byte  `json:"-" gorm:"type:blob;not null"`                // JSON-encoded []float32 in [-1,1]
	Duration   float64 `json:"duration" gorm:"not null"`                   // Duration in seconds
	Resolution int     `json:"resolution" gorm:"not null"`                 // Number of peaks
	SampleRate int     `json:"sample_rate,omitempty" gorm:"default:44100"` // Sample rate of original audio
}

// Peaks returns the decoded peaks data
func (w *Waveform) Peaks() ([]float32, error) {
	var peaks []float32
	if err := json.Unmarshal(w.PeaksData, &peaks); err != nil {
		return nil, err
	}
	return peaks, nil
}

// SetPeaks encodes and sets the peaks data
func (w *Waveform) SetPeaks(peaks []float32) error {
	data, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	w.PeaksData = data
	w.Resolution = len(peaks)
	return nil
}
