package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remixlab/remix-api/internal/models"
)

func TestInitializeInMemory(t *testing.T) {
	db, err := Initialize(":memory:", false)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck())
	assert.NoError(t, db.DB.AutoMigrate(models.AllModels()...))
}

func TestInitializeCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "remix.db")

	db, err := Initialize(path, false)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck())
	assert.FileExists(t, path)
}

func TestHealthCheckAfterClose(t *testing.T) {
	db, err := Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.Error(t, db.HealthCheck())
}
