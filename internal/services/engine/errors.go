package engine

import "errors"

var (
	// ErrUnsupportedContainer is returned when the input is not a supported audio container
	ErrUnsupportedContainer = errors.New("unsupported or corrupt audio container")

	// ErrEmptyBuffer is returned when a decoded buffer has no samples
	ErrEmptyBuffer = errors.New("decoded buffer has no samples")

	// ErrMissingAnalysis is returned when synthesis is invoked without a feature summary
	ErrMissingAnalysis = errors.New("feature summary required for synthesis")

	// ErrContextClosed is returned when a graph node is requested from a closed context
	ErrContextClosed = errors.New("audio context is closed")
)
