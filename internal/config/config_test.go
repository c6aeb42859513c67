package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_RejectsLowConcurrency(t *testing.T) {
	cfg := Default()
	cfg.Research.MaxConcurrentRequests = 4
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_requests")
}

func TestValidate_RejectsBadHybridWeights(t *testing.T) {
	cfg := Default()
	cfg.RAG.HybridWeights = HybridWeights{DenseWeight: 0.9, SparseWeight: 0.9}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hybrid_weights")
}

func TestValidate_RejectsNoteBoundsInverted(t *testing.T) {
	cfg := Default()
	cfg.Research.MinNotesPerSectionAssignment = 20
	cfg.Research.MaxNotesPerSectionAssignment = 5
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "postgres"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maestro.yaml")
	yaml := `
research:
  structured_research_rounds: 5
  max_concurrent_requests: 10
store:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Research.StructuredResearchRounds)
	// unspecified fields keep their defaults
	assert.Equal(t, 1024, cfg.RAG.DenseDim)
}

func TestLoad_PropagatesValidationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maestro.yaml")
	require.NoError(t, os.WriteFile(path, []byte("research:\n  max_concurrent_requests: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
