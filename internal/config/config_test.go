package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1e-8, cfg.Check.CloseVertexEpsilon)
	assert.Equal(t, 15, cfg.Inject.MinVertices)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
check:
  overlap_sample: 0
  seed: 42
simplify:
  target_points: 30
  keep_properties: [fclass, name]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Check.OverlapSample)
	assert.Equal(t, uint64(42), cfg.Check.Seed)
	assert.Equal(t, 30, cfg.Simplify.TargetPoints)
	assert.Equal(t, []string{"fclass", "name"}, cfg.Simplify.KeepProperties)

	// untouched keys keep their defaults
	assert.Equal(t, 1e-10, cfg.Check.SmallArea)
	assert.Equal(t, "subset_with_error.json", cfg.Files.Corrupted)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Inject.MinVertices = 3
	cfg.Simplify.Method = MethodDouglasPeucker
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inject.min_vertices")
	assert.Contains(t, err.Error(), "simplify.tolerance")

	cfg.Simplify.Method = "bogus"
	assert.ErrorContains(t, cfg.Validate(), "unknown simplify.method")

	assert.NoError(t, Default().Validate())
}
