package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/database"
	"github.com/remixlab/remix-api/internal/models"
)

func newTestJobService(t *testing.T) Service {
	t.Helper()
	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.DB.AutoMigrate(&models.Job{}))
	t.Cleanup(func() { db.Close() })
	return NewService(NewRepository(db.DB))
}

func TestEnqueueAndClaim(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeIngestAnalysis, models.JobPayload{
		"session_id": "abc",
		"generation": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)

	sessionID, ok := claimed.GetPayloadString("session_id")
	require.True(t, ok)
	assert.Equal(t, "abc", sessionID)

	generation, ok := claimed.GetPayloadUint64("generation")
	require.True(t, ok)
	assert.Equal(t, uint64(1), generation)
}

func TestClaimRespectsJobTypes(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	_, err := svc.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{"session_id": "abc"})
	require.NoError(t, err)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestClaimPriorityOrder(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	low, err := svc.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{"session_id": "low"})
	require.NoError(t, err)
	high, err := svc.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{"session_id": "high"}, WithPriority(5))
	require.NoError(t, err)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeRemixRender})
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, high.ID, claimed.ID)

	claimed, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeRemixRender})
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, low.ID, claimed.ID)
}

func TestCompleteJob(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeIngestAnalysis, models.JobPayload{"session_id": "abc"})
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteJob(ctx, job.ID))

	status, err := svc.GetJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)
}

func TestFailJobWithoutRetriesIsPermanent(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeIngestAnalysis, models.JobPayload{"session_id": "abc"})
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)

	require.NoError(t, svc.FailJob(ctx, job.ID, assertError("decode blew up")))

	failed, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, failed.Status)
	assert.True(t, failed.IsTerminal())
	assert.False(t, failed.IsRetryable())

	// Failed jobs are not reclaimed
	claimed, err := svc.ClaimNextJob(ctx, "worker-2", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestFailJobWithDetails(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeIngestAnalysis, models.JobPayload{"session_id": "abc"})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeIngestAnalysis})
	require.NoError(t, err)

	require.NoError(t, svc.FailJobWithDetails(ctx, job.ID, models.ErrorTypeDecode, "DECODE_FAILED", "Audio could not be decoded", "bad RIFF header"))

	failed, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ErrorTypeDecode), failed.ErrorType)
	assert.Equal(t, "DECODE_FAILED", failed.ErrorCode)
}

func TestGetJobForSession(t *testing.T) {
	svc := newTestJobService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{"session_id": "wanted"})
	require.NoError(t, err)
	_, err = svc.EnqueueJob(ctx, models.JobTypeRemixRender, models.JobPayload{"session_id": "other"})
	require.NoError(t, err)

	found, err := svc.GetJobForSession(ctx, models.JobTypeRemixRender, "wanted")
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
}

func TestGetMissingJob(t *testing.T) {
	svc := newTestJobService(t)
	_, err := svc.GetJob(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

type assertError string

func (e assertError) Error() string { return string(e) }
