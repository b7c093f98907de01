package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/internal/herr"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, defaultDBSizeGB, cfg.DBMaxSizeGB)
	assert.Equal(t, float32(1.2), cfg.BM25.K1)
	assert.Equal(t, float32(0.75), cfg.BM25.B)
}

func TestLoadMissingFileReturnsConfigFileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, herr.ErrConfigFileNotFound)
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.hx.json", `{
		"db_max_size_gb": 50,
		"secondary_indices": ["email", "created_at"],
		"vector_config": {"m": 32, "ef_construction": 400, "ef_search": 128}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DBMaxSizeGB)
	assert.Equal(t, []string{"email", "created_at"}, cfg.SecondaryIndices)
	assert.Equal(t, 32, cfg.VectorConfig.M)
	// bm25 not named in the JSON file, so it keeps the documented default.
	assert.Equal(t, float32(1.2), cfg.BM25.K1)
}

func TestLoadClampsDBMaxSizeGB(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.hx.json", `{"db_max_size_gb": 999999}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, maxDBSizeGB, cfg.DBMaxSizeGB)
}

func TestLoadLayersYAMLDefaultsOverJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.hx.json", `{"db_max_size_gb": 50}`)
	writeFile(t, dir, "defaults.yaml", "bm25:\n  k1: 2.0\n  b: 0.5\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DBMaxSizeGB)
	assert.Equal(t, float32(2.0), cfg.BM25.K1)
	assert.Equal(t, float32(0.5), cfg.BM25.B)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.hx.json", `{"db_max_size_gb": 50}`)
	t.Setenv("HELIX_DB_MAX_SIZE_GB", "77")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.DBMaxSizeGB)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
