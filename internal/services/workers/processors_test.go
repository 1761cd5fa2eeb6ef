package workers

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/database"
	"github.com/remixlab/remix-api/internal/models"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/jobs"
	"github.com/remixlab/remix-api/internal/services/sessions"
	"github.com/remixlab/remix-api/pkg/config"
)

type fixture struct {
	sessions sessions.Service
	jobs     jobs.Service
	eng      engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.DB.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Storage: config.StorageConfig{
			ArtifactsDir: filepath.Join(t.TempDir(), "artifacts"),
			ShareDir:     filepath.Join(t.TempDir(), "shared"),
		},
		Visualizer: config.VisualizerConfig{FrameRate: 60, FFTSize: 512, Bands: 16},
	}

	eng := engine.NewLibrary()
	jobService := jobs.NewService(jobs.NewRepository(db.DB))
	sessionService := sessions.NewService(sessions.NewRepository(db.DB), jobService, eng, cfg)
	return &fixture{sessions: sessionService, jobs: jobService, eng: eng}
}

// wavUpload renders a half-second 440 Hz tone as real WAV bytes
func wavUpload(t *testing.T, eng engine.Engine) []byte {
	t.Helper()
	rate := 44100
	samples := make([]float64, rate/2)
	for i := range samples {
		samples[i] = 0.4 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	data, err := eng.EncodeWAV(&engine.Buffer{SampleRate: rate, SourceChannels: 1, Samples: samples})
	require.NoError(t, err)
	return data
}

func claimJob(t *testing.T, f *fixture, jobType models.JobType) *models.Job {
	t.Helper()
	job, err := f.jobs.ClaimNextJob(context.Background(), "test-worker", []models.JobType{jobType})
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestIngestProcessorHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.sessions.CreateSession(ctx, "tone.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	processor := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	job := claimJob(t, f, models.JobTypeIngestAnalysis)
	require.True(t, processor.CanProcess(job.Type))

	require.NoError(t, processor.ProcessJob(ctx, job))

	got, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusReady, got.Status)

	summary, err := f.sessions.GetFeatureSummary(ctx, session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, summary.DurationSeconds, 0.01)
	assert.Equal(t, 44100, summary.SampleRate)

	status, err := f.jobs.GetJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)
}

func TestIngestProcessorDecodeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.sessions.CreateSession(ctx, "noise.wav", strings.NewReader("this is not audio"))
	require.NoError(t, err)

	processor := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	job := claimJob(t, f, models.JobTypeIngestAnalysis)

	err = processor.ProcessJob(ctx, job)
	require.Error(t, err)

	structured, ok := err.(*models.StructuredJobError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorTypeDecode, structured.Type)

	got, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, got.Status)
	assert.Equal(t, models.ErrorKindDecode, got.ErrorKind)
}

func TestIngestProcessorSkipsSupersededJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.sessions.CreateSession(ctx, "first.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	firstJob := claimJob(t, f, models.JobTypeIngestAnalysis)

	// A second upload supersedes the claimed job
	_, _, err = f.sessions.ReplaceTrack(ctx, session.ID, "second.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	processor := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	require.NoError(t, processor.ProcessJob(ctx, firstJob))

	// The stale job completes without publishing anything
	got, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAnalyzing, got.Status)

	status, err := f.jobs.GetJobStatus(ctx, firstJob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)
}

func TestRenderProcessorHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.sessions.CreateSession(ctx, "tone.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	ingest := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	require.NoError(t, ingest.ProcessJob(ctx, claimJob(t, f, models.JobTypeIngestAnalysis)))

	_, err = f.sessions.StartRender(ctx, session.ID)
	require.NoError(t, err)

	render := NewRenderProcessor(f.sessions, f.jobs, f.eng)
	job := claimJob(t, f, models.JobTypeRemixRender)
	require.True(t, render.CanProcess(job.Type))
	require.NoError(t, render.ProcessJob(ctx, job))

	got, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.RemixReady)
	assert.False(t, got.HasError())

	// The artifact decodes back as valid WAV
	path, name, err := f.sessions.ArtifactPath(ctx, session.ID, "remix")
	require.NoError(t, err)
	assert.Equal(t, "tone_remix.wav", name)
	assert.FileExists(t, path)
}

func TestRenderProcessorSkipsSupersededJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, _, err := f.sessions.CreateSession(ctx, "first.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	ingest := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	require.NoError(t, ingest.ProcessJob(ctx, claimJob(t, f, models.JobTypeIngestAnalysis)))

	_, err = f.sessions.StartRender(ctx, session.ID)
	require.NoError(t, err)
	renderJob := claimJob(t, f, models.JobTypeRemixRender)

	// The track is replaced and re-analyzed while the render job waits
	_, _, err = f.sessions.ReplaceTrack(ctx, session.ID, "second.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)
	require.NoError(t, ingest.ProcessJob(ctx, claimJob(t, f, models.JobTypeIngestAnalysis)))

	render := NewRenderProcessor(f.sessions, f.jobs, f.eng)
	require.NoError(t, render.ProcessJob(ctx, renderJob))

	// The stale render completes without publishing a remix of the
	// replacement track
	got, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, got.RemixReady)
	assert.False(t, got.HasError())
	_, _, err = f.sessions.ArtifactPath(ctx, session.ID, "remix")
	assert.ErrorIs(t, err, sessions.ErrNoRemixArtifact)

	status, err := f.jobs.GetJobStatus(ctx, renderJob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)

	// A render started for the replacement still goes through
	_, err = f.sessions.StartRender(ctx, session.ID)
	require.NoError(t, err)
	require.NoError(t, render.ProcessJob(ctx, claimJob(t, f, models.JobTypeRemixRender)))

	got, err = f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.RemixReady)
}

func TestProcessorsRejectForeignJobTypes(t *testing.T) {
	f := newFixture(t)

	ingest := NewIngestProcessor(f.sessions, f.jobs, f.eng)
	render := NewRenderProcessor(f.sessions, f.jobs, f.eng)

	assert.False(t, ingest.CanProcess(models.JobTypeRemixRender))
	assert.False(t, render.CanProcess(models.JobTypeIngestAnalysis))
}
