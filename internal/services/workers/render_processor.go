package workers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/jobs"
	"github.com/remixlab/remix-api/internal/services/sessions"
)

// RenderProcessor synthesizes the remix for a session using the
// parameter snapshot taken when the job starts running. A render whose
// upload was replaced in the meantime completes quietly.
type RenderProcessor struct {
	sessionService sessions.Service
	jobService     jobs.Service
	eng            engine.Engine
}

// NewRenderProcessor creates a processor for remix render jobs
func NewRenderProcessor(sessionService sessions.Service, jobService jobs.Service, eng engine.Engine) *RenderProcessor {
	return &RenderProcessor{
		sessionService: sessionService,
		jobService:     jobService,
		eng:            eng,
	}
}

// CanProcess returns true for remix render jobs
func (p *RenderProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeRemixRender
}

// ProcessJob renders, encodes, and publishes the remix artifact
func (p *RenderProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	sessionID, ok := job.GetPayloadString("session_id")
	if !ok {
		return models.NewSystemError("INVALID_PAYLOAD", "Job payload missing session_id", "", nil)
	}
	generation, ok := job.GetPayloadUint64("generation")
	if !ok {
		return models.NewSystemError("INVALID_PAYLOAD", "Job payload missing generation", "", nil)
	}

	src, features, params, err := p.sessionService.RenderInputs(sessionID, generation)
	if err != nil {
		if errors.Is(err, sessions.ErrStaleGeneration) || errors.Is(err, sessions.ErrSessionNotFound) {
			log.Printf("[INFO] Skipping render job %d: %v", job.ID, err)
			return p.jobService.CompleteJob(ctx, job.ID)
		}
		p.failSession(ctx, sessionID, err)
		return models.NewSystemError("RENDER_INPUTS", "Render inputs unavailable", err.Error(), err)
	}

	remix, err := p.eng.SynthesizeRemix(src, features, params)
	if err != nil {
		p.failSession(ctx, sessionID, err)
		return models.NewProcessingError("RENDER_FAILED", "Remix synthesis failed", err.Error(), err)
	}

	wavBytes, err := p.eng.EncodeWAV(remix)
	if err != nil {
		p.failSession(ctx, sessionID, err)
		return models.NewProcessingError("ENCODE_FAILED", "Remix encoding failed", err.Error(), err)
	}

	if err := p.sessionService.CompleteRender(ctx, sessionID, generation, remix, wavBytes); err != nil {
		if errors.Is(err, sessions.ErrStaleGeneration) || errors.Is(err, sessions.ErrSessionNotFound) {
			log.Printf("[INFO] Discarding render result for job %d: %v", job.ID, err)
			return p.jobService.CompleteJob(ctx, job.ID)
		}
		return fmt.Errorf("failed to publish remix: %w", err)
	}

	return p.jobService.CompleteJob(ctx, job.ID)
}

func (p *RenderProcessor) failSession(ctx context.Context, sessionID string, cause error) {
	if err := p.sessionService.FailRender(ctx, sessionID, cause); err != nil &&
		!errors.Is(err, sessions.ErrSessionNotFound) {
		log.Printf("[WARN] Failed to record render failure for session %s: %v", sessionID, err)
	}
}
