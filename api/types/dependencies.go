package types

import (
	"github.com/remixlab/remix-api/internal/database"
	"github.com/remixlab/remix-api/internal/services/engine"
	"github.com/remixlab/remix-api/internal/services/jobs"
	"github.com/remixlab/remix-api/internal/services/sessions"
	"github.com/remixlab/remix-api/internal/services/workers"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	SessionService sessions.Service
	JobService     jobs.Service
	Engine         engine.Engine
	WorkerPool     *workers.WorkerPool
}
