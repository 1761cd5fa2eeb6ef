package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// FeatureSummary holds the extracted musical descriptors for one decoded
// buffer. Produced once per successful analysis, never mutated afterwards.
type FeatureSummary struct {
	gorm.Model
	SessionID        string  `json:"session_id" gorm:"type:uuid;not null;uniqueIndex"`
	BPM              float64 `json:"bpm" gorm:"not null"`
	Key              string  `json:"key" gorm:"not null"`                  // musical key label, e.g. "A minor"
	RMSEnergy        float64 `json:"rms_energy" gorm:"not null"`           // 0-1 loudness proxy
	SpectralCentroid float64 `json:"spectral_centroid" gorm:"not null"`    // Hz
	DurationSeconds  float64 `json:"duration_seconds" gorm:"not null"`     // decoded buffer duration
	SampleRate       int     `json:"sample_rate" gorm:"default:44100"`     // sample rate of decoded audio
	BeatGridData     []byte  `json:"-" gorm:"type:blob;not null"`          // JSON-encoded []float64, ascending
}

// BeatGrid returns the decoded beat timestamps in seconds
func (f *FeatureSummary) BeatGrid() ([]float64, error) {
	var grid []float64
	if err := json.Unmarshal(f.BeatGridData, &grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// SetBeatGrid encodes and sets the beat timestamps
func (f *FeatureSummary) SetBeatGrid(grid []float64) error {
	data, err := json.Marshal(grid)
	if err != nil {
		return err
	}
	f.BeatGridData = data
	return nil
}
