package sessions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/jobs"
	"github.com/remixlab/remix-api/internal/services/ledger"
	"github.com/remixlab/remix-api/internal/services/visualizer"
	"github.com/remixlab/remix-api/pkg/config"
)

type service struct {
	repo Repository
	jobs jobs.Service
	eng  engine.Engine
	reg  *registry
	cfg  *config.Config
}

// NewService creates the session orchestrator
func NewService(repo Repository, jobService jobs.Service, eng engine.Engine, cfg *config.Config) Service {
	return &service{
		repo: repo,
		jobs: jobService,
		eng:  eng,
		reg:  newRegistry(),
		cfg:  cfg,
	}
}

func (s *service) CreateSession(ctx context.Context, originalName string, src io.Reader) (*models.Session, *models.Job, error) {
	session := &models.Session{
		ID:           uuid.New().String(),
		OriginalName: originalName,
		Status:       models.SessionStatusIdle,
		Params:       models.DefaultRemixParams(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	job, err := s.stageUpload(ctx, session, originalName, src)
	if err != nil {
		return nil, nil, err
	}
	return session, job, nil
}

func (s *service) ReplaceTrack(ctx context.Context, sessionID, originalName string, src io.Reader) (*models.Session, *models.Job, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	session.OriginalName = originalName
	job, err := s.stageUpload(ctx, session, originalName, src)
	if err != nil {
		return nil, nil, err
	}
	return session, job, nil
}

// stageUpload writes the uploaded bytes to the artifact store, bumps the
// session generation so in-flight analysis for the previous upload gets
// discarded, clears every derived artifact, and enqueues analysis.
func (s *service) stageUpload(ctx context.Context, session *models.Session, originalName string, src io.Reader) (*models.Job, error) {
	rt := s.reg.getOrCreate(session.ID)

	rt.pubMu.Lock()
	defer rt.pubMu.Unlock()

	rt.mu.Lock()
	rt.generation++
	generation := rt.generation
	rt.sourceBuf = nil
	rt.remixBuf = nil
	rt.features = nil
	rt.rendering = false
	viz := rt.viz
	rt.mu.Unlock()

	path := filepath.Join(s.cfg.Storage.ArtifactsDir, fmt.Sprintf("%s-g%d-source.wav", session.ID, generation))
	if err := writeArtifact(path, src); err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	// Staging into the slots evicts the previous upload's files
	rt.ledger.Stage(ledger.SlotSourceArtifact, removeFile(path))
	rt.ledger.Release(ledger.SlotRemixArtifact)

	rt.mu.Lock()
	rt.sourcePath = path
	rt.remixPath = ""
	rt.mu.Unlock()

	if viz != nil {
		viz.DetachDeck(visualizer.DeckOriginal)
		viz.DetachDeck(visualizer.DeckRemix)
	}

	// Derived rows describe the previous track, drop them
	if err := s.repo.DeleteFeatureSummary(ctx, session.ID); err != nil {
		log.Printf("[WARN] Failed to clear feature summary for session %s: %v", session.ID, err)
	}
	if err := s.repo.DeleteWaveform(ctx, session.ID); err != nil {
		log.Printf("[WARN] Failed to clear waveform for session %s: %v", session.ID, err)
	}

	session.Status = models.SessionStatusAnalyzing
	session.Generation = generation
	session.RemixReady = false
	session.ClearError()
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	job, err := s.jobs.EnqueueJob(ctx, models.JobTypeIngestAnalysis, models.JobPayload{
		"session_id": session.ID,
		"generation": generation,
		"path":       path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue analysis: %w", err)
	}
	log.Printf("[INFO] Staged upload %q for session %s (generation %d, job %d)", originalName, session.ID, generation, job.ID)
	return job, nil
}

func (s *service) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.repo.GetSession(ctx, sessionID)
}

func (s *service) GetFeatureSummary(ctx context.Context, sessionID string) (*models.FeatureSummary, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetFeatureSummary(ctx, sessionID)
}

func (s *service) GetWaveform(ctx context.Context, sessionID string) (*models.Waveform, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetWaveform(ctx, sessionID)
}

func (s *service) UpdateParams(ctx context.Context, sessionID string, patch models.RemixParamsPatch) (*models.Session, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Params = session.Params.Merge(patch)
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update params: %w", err)
	}
	return session, nil
}

func (s *service) StartRender(ctx context.Context, sessionID string) (*models.Job, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return nil, ErrNotReady
	}

	rt.mu.Lock()
	if session.Status != models.SessionStatusReady || rt.sourceBuf == nil || rt.features == nil {
		rt.mu.Unlock()
		return nil, ErrNotReady
	}
	if rt.rendering {
		rt.mu.Unlock()
		return nil, ErrRenderInFlight
	}
	rt.rendering = true
	generation := rt.generation
	rt.mu.Unlock()

	job, err := s.jobs.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{
		"session_id": sessionID,
		"generation": generation,
	})
	if err != nil {
		rt.mu.Lock()
		rt.rendering = false
		rt.mu.Unlock()
		return nil, fmt.Errorf("failed to enqueue render: %w", err)
	}
	log.Printf("[INFO] Render enqueued for session %s (job %d)", sessionID, job.ID)
	return job, nil
}

func (s *service) ArtifactPath(ctx context.Context, sessionID string, deck visualizer.DeckID) (string, string, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return "", "", ErrNotReady
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	switch deck {
	case visualizer.DeckOriginal:
		if rt.sourcePath == "" {
			return "", "", ErrNotReady
		}
		return rt.sourcePath, downloadName(session.OriginalName, false), nil
	case visualizer.DeckRemix:
		if rt.remixPath == "" {
			return "", "", ErrNoRemixArtifact
		}
		return rt.remixPath, downloadName(session.OriginalName, true), nil
	default:
		return "", "", visualizer.ErrUnknownDeck
	}
}

// Share exports the remix artifact to the share directory. When the
// export fails the caller gets a copyable download reference instead,
// and when no remix exists yet the whole thing is a quiet no-op.
// Share never returns a failure to the caller.
func (s *service) Share(ctx context.Context, sessionID string) (*ShareResult, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return &ShareResult{Method: "none"}, nil
	}

	rt.mu.Lock()
	remixPath := rt.remixPath
	rt.mu.Unlock()
	if remixPath == "" {
		return &ShareResult{Method: "none"}, nil
	}

	name := downloadName(session.OriginalName, true)
	shared := filepath.Join(s.cfg.Storage.ShareDir, fmt.Sprintf("%s-%s", sessionID, name))
	if err := copyFile(remixPath, shared); err != nil {
		log.Printf("[WARN] Share export failed for session %s: %v", sessionID, err)
		return &ShareResult{
			Method:    "clipboard",
			Reference: fmt.Sprintf("/api/v1/sessions/%s/download", sessionID),
			FileName:  name,
		}, nil
	}
	return &ShareResult{Method: "file", SharedPath: shared, FileName: name}, nil
}

func (s *service) Visualizer(sessionID string) (*visualizer.Visualizer, error) {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	// A torn-down instance stays dead for good, so build a fresh one
	// and reattach whatever decks the session still has
	if rt.viz == nil || rt.viz.State() == visualizer.StateTornDown {
		rt.viz = visualizer.New(sessionID, visualizer.Config{
			FrameRate: s.cfg.Visualizer.FrameRate,
			FFTSize:   s.cfg.Visualizer.FFTSize,
			Bands:     s.cfg.Visualizer.Bands,
		}, rt.ledger)
		if rt.sourceBuf != nil {
			if err := rt.viz.AttachDeck(visualizer.DeckOriginal, rt.sourceBuf); err != nil {
				return nil, err
			}
		}
		if rt.remixBuf != nil {
			if err := rt.viz.AttachDeck(visualizer.DeckRemix, rt.remixBuf); err != nil {
				return nil, err
			}
		}
	}
	return rt.viz, nil
}

func (s *service) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return err
	}

	if rt, ok := s.reg.remove(sessionID); ok {
		rt.mu.Lock()
		viz := rt.viz
		rt.viz = nil
		rt.mu.Unlock()
		if viz != nil {
			viz.Teardown()
		}
		rt.ledger.ReleaseAll()
	}

	if err := s.repo.DeleteFeatureSummary(ctx, sessionID); err != nil {
		log.Printf("[WARN] Failed to delete feature summary for session %s: %v", sessionID, err)
	}
	if err := s.repo.DeleteWaveform(ctx, sessionID); err != nil {
		log.Printf("[WARN] Failed to delete waveform for session %s: %v", sessionID, err)
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Printf("[INFO] Session %s deleted", sessionID)
	return nil
}

// IngestSourcePath hands the staged upload path to the analysis worker,
// refusing when the upload was already superseded
func (s *service) IngestSourcePath(sessionID string, generation uint64) (string, error) {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if generation != rt.generation {
		return "", ErrStaleGeneration
	}
	if rt.sourcePath == "" {
		return "", ErrNotReady
	}
	return rt.sourcePath, nil
}

func (s *service) CompleteIngest(ctx context.Context, sessionID string, generation uint64, buf *engine.Buffer, features *engine.Features) error {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	rt.pubMu.Lock()
	defer rt.pubMu.Unlock()

	rt.mu.Lock()
	if generation != rt.generation {
		current := rt.generation
		rt.mu.Unlock()
		log.Printf("[INFO] Discarding analysis for session %s: generation %d superseded by %d", sessionID, generation, current)
		return ErrStaleGeneration
	}
	rt.sourceBuf = buf
	rt.features = features
	viz := rt.viz
	rt.mu.Unlock()

	summary := &models.FeatureSummary{
		SessionID:        sessionID,
		BPM:              features.BPM,
		Key:              features.Key,
		RMSEnergy:        features.RMSEnergy,
		SpectralCentroid: features.SpectralCentroid,
		DurationSeconds:  features.DurationSeconds,
		SampleRate:       features.SampleRate,
	}
	if err := summary.SetBeatGrid(features.BeatGrid); err != nil {
		return fmt.Errorf("failed to encode beat grid: %w", err)
	}
	if err := s.repo.SaveFeatureSummary(ctx, summary); err != nil {
		return fmt.Errorf("failed to save feature summary: %w", err)
	}

	waveform := &models.Waveform{
		SessionID:  sessionID,
		Duration:   features.DurationSeconds,
		SampleRate: features.SampleRate,
	}
	if err := waveform.SetPeaks(features.Waveform); err != nil {
		return fmt.Errorf("failed to encode waveform: %w", err)
	}
	if err := s.repo.SaveWaveform(ctx, waveform); err != nil {
		return fmt.Errorf("failed to save waveform: %w", err)
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Status = models.SessionStatusReady
	session.ClearError()
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to mark session ready: %w", err)
	}

	if viz != nil {
		if err := viz.AttachDeck(visualizer.DeckOriginal, buf); err != nil {
			log.Printf("[WARN] Failed to attach original deck for session %s: %v", sessionID, err)
		}
	}
	log.Printf("[INFO] Analysis complete for session %s: %.1f BPM, key %s, %.1fs", sessionID, features.BPM, features.Key, features.DurationSeconds)
	return nil
}

func (s *service) FailIngest(ctx context.Context, sessionID string, generation uint64, cause error) error {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	rt.pubMu.Lock()
	defer rt.pubMu.Unlock()

	rt.mu.Lock()
	if generation != rt.generation {
		rt.mu.Unlock()
		return ErrStaleGeneration
	}
	rt.mu.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Status = models.SessionStatusFailed
	session.SetError(models.ErrorKindDecode, cause.Error())
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to mark session failed: %w", err)
	}
	log.Printf("[WARN] Analysis failed for session %s: %v", sessionID, cause)
	return nil
}

// RenderInputs hands the decoded source and the current parameter
// snapshot to the render worker. The generation comes from the job
// payload, so a render enqueued before a track replacement refuses
// here instead of remixing the wrong upload.
func (s *service) RenderInputs(sessionID string, generation uint64) (*engine.Buffer, *engine.Features, models.RemixParams, error) {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return nil, nil, models.RemixParams{}, ErrSessionNotFound
	}

	rt.mu.Lock()
	if generation != rt.generation {
		rt.mu.Unlock()
		return nil, nil, models.RemixParams{}, ErrStaleGeneration
	}
	buf, features := rt.sourceBuf, rt.features
	rt.mu.Unlock()
	if buf == nil || features == nil {
		return nil, nil, models.RemixParams{}, ErrNotReady
	}

	// Params are snapshotted here: edits made while the render runs
	// apply to the next render, not this one
	session, err := s.repo.GetSession(context.Background(), sessionID)
	if err != nil {
		return nil, nil, models.RemixParams{}, err
	}
	return buf, features, session.Params, nil
}

func (s *service) CompleteRender(ctx context.Context, sessionID string, generation uint64, buf *engine.Buffer, wavBytes []byte) error {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	rt.pubMu.Lock()
	defer rt.pubMu.Unlock()

	rt.mu.Lock()
	if generation != rt.generation {
		// The replacement already cleared the rendering flag for this
		// generation, leave the new one alone
		rt.mu.Unlock()
		return ErrStaleGeneration
	}
	rt.mu.Unlock()

	path := filepath.Join(s.cfg.Storage.ArtifactsDir, fmt.Sprintf("%s-g%d-remix.wav", sessionID, generation))
	if err := writeArtifact(path, bytes.NewReader(wavBytes)); err != nil {
		rt.mu.Lock()
		rt.rendering = false
		rt.mu.Unlock()
		return fmt.Errorf("failed to store remix artifact: %w", err)
	}
	rt.ledger.Stage(ledger.SlotRemixArtifact, removeFile(path))

	rt.mu.Lock()
	rt.remixBuf = buf
	rt.remixPath = path
	rt.rendering = false
	viz := rt.viz
	rt.mu.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.RemixReady = true
	if session.ErrorKind == models.ErrorKindRender {
		session.ClearError()
	}
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to mark remix ready: %w", err)
	}

	if viz != nil {
		if err := viz.AttachDeck(visualizer.DeckRemix, buf); err != nil {
			log.Printf("[WARN] Failed to attach remix deck for session %s: %v", sessionID, err)
		}
	}
	log.Printf("[INFO] Remix rendered for session %s (%d bytes)", sessionID, len(wavBytes))
	return nil
}

func (s *service) FailRender(ctx context.Context, sessionID string, cause error) error {
	rt, ok := s.reg.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	rt.mu.Lock()
	rt.rendering = false
	rt.mu.Unlock()

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	// A failed render keeps the session usable: the source track,
	// analysis, and any previous remix all stay in place
	session.SetError(models.ErrorKindRender, cause.Error())
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to record render error: %w", err)
	}
	log.Printf("[WARN] Render failed for session %s: %v", sessionID, cause)
	return nil
}

func writeArtifact(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeArtifact(dst, in)
}

func removeFile(path string) func() {
	return func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[WARN] Failed to remove artifact %s: %v", path, err)
		}
	}
}

// downloadName derives the user-facing filename for a deck artifact
func downloadName(originalName string, remix bool) string {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	if stem == "" || stem == "." {
		stem = "track"
	}
	if remix {
		return stem + "_remix.wav"
	}
	return stem + ".wav"
}
