package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "LOG_LEVEL", "LOG_FORMAT", "WEBHOOK_URL", "WEBHOOK_TIMEOUT",
		"FORWARD_MODE", "FORWARD_CONCURRENCY", "MAX_UPLOAD_BYTES", "RESULTS_STORE",
		"RESULTS_TABLE", "RESULTS_TTL", "RESULTS_QUEUE_URL", "DATABASE_URL",
		"METRICS_NAMESPACE", "RUN_LOCAL", "IDEMPOTENCY_TABLE", "IDEMPOTENCY_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.BackendConfigured())
	assert.Equal(t, time.Hour, cfg.ResultsTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
forward_mode: multipart
results_ttl: 30m
database_url: postgres://file
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("FORWARD_CONCURRENCY", "2")
	t.Setenv("RUN_LOCAL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ForwardMultipart, cfg.ForwardMode)
	assert.Equal(t, 30*time.Minute, cfg.ResultsTTL)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.ForwardConcurrency)
	assert.True(t, cfg.RunLocal)
	assert.True(t, cfg.BackendConfigured())
}

func TestLoad_DynamoRequiresTable(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("RESULTS_STORE", StoreDynamoDB)

	_, err := Load()
	require.Error(t, err)

	t.Setenv("RESULTS_TABLE", "parsed-results")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "parsed-results", cfg.ResultsTable)
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("RESULTS_TTL", "an hour")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidMode(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("FORWARD_MODE", "xml")

	_, err := Load()
	assert.Error(t, err)
}

func TestWorkerConfigured(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.WorkerConfigured(), "RESULTS_STORE=dynamodb")

	cfg.ResultsStore = StoreDynamoDB
	assert.ErrorContains(t, cfg.WorkerConfigured(), "RESULTS_TABLE")

	cfg.ResultsTable = "parsed-results"
	assert.ErrorContains(t, cfg.WorkerConfigured(), "IDEMPOTENCY_TABLE")

	cfg.IdempotencyTable = "results-notices"
	assert.NoError(t, cfg.WorkerConfigured())
	assert.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
}
