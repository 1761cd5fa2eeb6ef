package sessions

import "errors"

var (
	// ErrSessionNotFound is returned when a session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotReady is returned when an operation needs a completed analysis
	ErrNotReady = errors.New("session has no completed analysis")

	// ErrRenderInFlight is returned when a render is already running for the session
	ErrRenderInFlight = errors.New("a render is already in flight for this session")

	// ErrNoRemixArtifact is returned when a remix artifact is required but absent
	ErrNoRemixArtifact = errors.New("no remix artifact exists for this session")

	// ErrStaleGeneration is returned when a result belongs to a superseded upload
	ErrStaleGeneration = errors.New("result belongs to a superseded upload")
)
