package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/jobs"
	"github.com/remixlab/remix-api/internal/services/sessions"
)

// IngestProcessor decodes a staged upload and extracts its acoustic
// features. A superseded generation completes quietly: the result is
// simply never published.
type IngestProcessor struct {
	sessionService sessions.Service
	jobService     jobs.Service
	eng            engine.Engine
}

// NewIngestProcessor creates a processor for ingest analysis jobs
func NewIngestProcessor(sessionService sessions.Service, jobService jobs.Service, eng engine.Engine) *IngestProcessor {
	return &IngestProcessor{
		sessionService: sessionService,
		jobService:     jobService,
		eng:            eng,
	}
}

// CanProcess returns true for ingest analysis jobs
func (p *IngestProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeIngestAnalysis
}

// ProcessJob decodes, analyzes, and publishes the result to the session
func (p *IngestProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	sessionID, ok := job.GetPayloadString("session_id")
	if !ok {
		return models.NewSystemError("INVALID_PAYLOAD", "Job payload missing session_id", "", nil)
	}
	generation, ok := job.GetPayloadUint64("generation")
	if !ok {
		return models.NewSystemError("INVALID_PAYLOAD", "Job payload missing generation", "", nil)
	}

	path, err := p.sessionService.IngestSourcePath(sessionID, generation)
	if err != nil {
		if errors.Is(err, sessions.ErrStaleGeneration) || errors.Is(err, sessions.ErrSessionNotFound) {
			log.Printf("[INFO] Skipping analysis job %d: %v", job.ID, err)
			return p.jobService.CompleteJob(ctx, job.ID)
		}
		return models.NewSystemError("SOURCE_UNAVAILABLE", "Staged upload not available", err.Error(), err)
	}

	f, err := os.Open(path)
	if err != nil {
		p.failSession(ctx, sessionID, generation, err)
		return models.NewSystemError("SOURCE_UNAVAILABLE", "Failed to open staged upload", err.Error(), err)
	}
	defer f.Close()

	buf, err := p.eng.Decode(f)
	if err != nil {
		p.failSession(ctx, sessionID, generation, err)
		return models.NewDecodeError("DECODE_FAILED", "Audio could not be decoded", err.Error(), err)
	}

	features, err := p.eng.Analyze(buf)
	if err != nil {
		p.failSession(ctx, sessionID, generation, err)
		return models.NewProcessingError("ANALYSIS_FAILED", "Feature extraction failed", err.Error(), err)
	}

	if err := p.sessionService.CompleteIngest(ctx, sessionID, generation, buf, features); err != nil {
		if errors.Is(err, sessions.ErrStaleGeneration) || errors.Is(err, sessions.ErrSessionNotFound) {
			log.Printf("[INFO] Discarding analysis result for job %d: %v", job.ID, err)
			return p.jobService.CompleteJob(ctx, job.ID)
		}
		return fmt.Errorf("failed to publish analysis result: %w", err)
	}

	return p.jobService.CompleteJob(ctx, job.ID)
}

func (p *IngestProcessor) failSession(ctx context.Context, sessionID string, generation uint64, cause error) {
	if err := p.sessionService.FailIngest(ctx, sessionID, generation, cause); err != nil &&
		!errors.Is(err, sessions.ErrStaleGeneration) && !errors.Is(err, sessions.ErrSessionNotFound) {
		log.Printf("[WARN] Failed to record analysis failure for session %s: %v", sessionID, err)
	}
}
