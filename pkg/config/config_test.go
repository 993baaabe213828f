package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeUsesBuiltinDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "J-UNSPECIFIED", cfg.Defaults.MACJurisdiction)
	assert.Equal(t, "continue", cfg.Defaults.ErrorPolicy)
	assert.Equal(t, 3, cfg.Defaults.RetryPolicy.MaxRetries)
}

func TestInitializeMergesServiceYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte("defaults:\n  mac_jurisdiction: J15\n  error_policy: fail-fast\nbackends:\n  CPT:\n    endpoint: ${CPT_ENDPOINT}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service.yaml"), content, 0o644))
	t.Setenv("CPT_ENDPOINT", "cpt.internal:9000")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "J15", cfg.Defaults.MACJurisdiction)
	assert.Equal(t, "fail-fast", cfg.Defaults.ErrorPolicy)

	backend, ok := cfg.Backend("CPT")
	require.True(t, ok)
	assert.Equal(t, "cpt.internal:9000", backend.Endpoint)
}

func TestInitializeRejectsInvalidErrorPolicy(t *testing.T) {
	dir := t.TempDir()
	content := []byte("defaults:\n  error_policy: whenever\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service.yaml"), content, 0o644))

	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}
