package sessions

import (
	"context"
	"io"

	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/visualizer"
)

// ShareResult describes the outcome of a share attempt
type ShareResult struct {
	// Method is "file" when the artifact was exported to the share
	// directory, "clipboard" when the caller should copy Reference,
	// and "none" when there was nothing to share.
	Method     string `json:"method"`
	SharedPath string `json:"shared_path,omitempty"`
	Reference  string `json:"reference,omitempty"`
	FileName   string `json:"file_name,omitempty"`
}

// Service is the session orchestrator: it composes ingestion, the
// parameter store, rendering, sharing, and the visualizer around one
// session aggregate.
type Service interface {
	// CreateSession stages an uploaded track into a new session and
	// enqueues its analysis
	CreateSession(ctx context.Context, originalName string, src io.Reader) (*models.Session, *models.Job, error)

	// ReplaceTrack stages a new upload into an existing session,
	// clearing every artifact of the previous track first
	ReplaceTrack(ctx context.Context, sessionID, originalName string, src io.Reader) (*models.Session, *models.Job, error)

	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	GetFeatureSummary(ctx context.Context, sessionID string) (*models.FeatureSummary, error)
	GetWaveform(ctx context.Context, sessionID string) (*models.Waveform, error)

	// UpdateParams merges a partial edit into a fresh parameter snapshot
	UpdateParams(ctx context.Context, sessionID string, patch models.RemixParamsPatch) (*models.Session, error)

	// StartRender enqueues a remix render; fails unless analysis is
	// complete and no render is in flight
	StartRender(ctx context.Context, sessionID string) (*models.Job, error)

	// ArtifactPath resolves the on-disk artifact and its download name
	// for one of the two decks
	ArtifactPath(ctx context.Context, sessionID string, deck visualizer.DeckID) (path, downloadName string, err error)

	// Share attempts a native share of the remix artifact, falling back
	// to a copyable reference; with no artifact it is a silent no-op
	Share(ctx context.Context, sessionID string) (*ShareResult, error)

	// Visualizer lazily builds and returns the session's dual-source
	// visualizer graph
	Visualizer(sessionID string) (*visualizer.Visualizer, error)

	// Delete unmounts the session: visualizer teardown, resource
	// release, row removal
	Delete(ctx context.Context, sessionID string) error

	// Worker callbacks. Results carry the generation of the upload they
	// were computed for; stale generations are discarded.
	IngestSourcePath(sessionID string, generation uint64) (string, error)
	CompleteIngest(ctx context.Context, sessionID string, generation uint64, buf *engine.Buffer, features *engine.Features) error
	FailIngest(ctx context.Context, sessionID string, generation uint64, cause error) error
	RenderInputs(sessionID string, generation uint64) (*engine.Buffer, *engine.Features, models.RemixParams, error)
	CompleteRender(ctx context.Context, sessionID string, generation uint64, buf *engine.Buffer, wavBytes []byte) error
	FailRender(ctx context.Context, sessionID string, cause error) error
}

// Repository defines the persistence interface for session aggregates
type Repository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error

	GetFeatureSummary(ctx context.Context, sessionID string) (*models.FeatureSummary, error)
	SaveFeatureSummary(ctx context.Context, summary *models.FeatureSummary) error
	DeleteFeatureSummary(ctx context.Context, sessionID string) error

	GetWaveform(ctx context.Context, sessionID string) (*models.Waveform, error)
	SaveWaveform(ctx context.Context, waveform *models.Waveform) error
	DeleteWaveform(ctx context.Context, sessionID string) error
}
