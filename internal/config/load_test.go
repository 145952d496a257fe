package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func TestLoad_BaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", `
[application]
google_project_id = "hooptuber-dev"

[storage]
raw_bucket = "hooptuber-raw"
output_bucket = "hooptuber-output"

[firestore]
job_collection = "jobs"

[pubsub]
topic = "job-events"
subscription = "job-events-worker"

[analyzer]
model = "gemini-2.0-flash"
`)
	t.Setenv(EnvConfigFilePrefix, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hooptuber-dev", cfg.Application.GoogleProjectId)
	assert.Equal(t, "hooptuber-raw", cfg.Storage.RawBucket)
	assert.Equal(t, 5, cfg.ClipPlanner.ClipDurationSeconds, "default should survive when the file doesn't override it")
}

func TestLoad_RuntimeOverlayWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", `
[application]
google_project_id = "hooptuber-dev"

[storage]
raw_bucket = "hooptuber-raw"
output_bucket = "hooptuber-output"

[firestore]
job_collection = "jobs"

[pubsub]
topic = "job-events"
subscription = "job-events-worker"

[analyzer]
model = "gemini-2.0-flash"

[worker]
delete_source_after_success = false
`)
	writeFile(t, dir, ".env.prod.toml", `
[worker]
delete_source_after_success = true
`)
	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "prod")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Worker.DeleteSourceAfterSuccess)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env.toml", `
[application]
google_project_id = "hooptuber-dev"
`)
	t.Setenv(EnvConfigFilePrefix, dir)

	_, err := Load()
	assert.Error(t, err)
}
