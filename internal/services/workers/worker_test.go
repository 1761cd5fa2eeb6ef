package workers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/models"
)

func TestWorkerPoolProcessesJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pool := NewWorkerPool(f.jobs, 2, 20*time.Millisecond)
	pool.RegisterProcessor(NewIngestProcessor(f.sessions, f.jobs, f.eng))
	pool.RegisterProcessor(NewRenderProcessor(f.sessions, f.jobs, f.eng))

	require.NoError(t, pool.Start(ctx))
	defer pool.Stop()

	// Starting twice is an error
	assert.Error(t, pool.Start(ctx))

	session, _, err := f.sessions.CreateSession(ctx, "tone.wav", bytes.NewReader(wavUpload(t, f.eng)))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := f.sessions.GetSession(ctx, session.ID)
		return err == nil && got.Status == models.SessionStatusReady
	}, 5*time.Second, 25*time.Millisecond, "analysis never completed")

	_, err = f.sessions.StartRender(ctx, session.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := f.sessions.GetSession(ctx, session.ID)
		return err == nil && got.RemixReady
	}, 5*time.Second, 25*time.Millisecond, "render never completed")
}

func TestWorkerStopIsGraceful(t *testing.T) {
	f := newFixture(t)

	worker := NewWorker("w-1", f.jobs, 10*time.Millisecond)
	worker.RegisterProcessor(NewIngestProcessor(f.sessions, f.jobs, f.eng))
	worker.Start(context.Background())

	// Stop blocks until the loop exits and never panics
	assert.NotPanics(t, worker.Stop)
}
