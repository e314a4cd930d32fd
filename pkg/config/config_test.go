package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInitCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.Iterations)
	assert.Equal(t, 3, cfg.PlanSteps)
	assert.Equal(t, ModeBlocks, cfg.Mode)

	// The file must now exist on disk.
	_, err = os.Stat(filepath.Join(dir, ".llmpc", "config.json"))
	assert.NoError(t, err)
}

func TestLoadOrInitReadsExisting(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Model = "qwen2.5-coder:7b"
	cfg.Provider = "ollama"
	require.NoError(t, cfg.Save(dir))

	loaded, err := LoadOrInit(dir)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder:7b", loaded.Model)
	assert.Equal(t, "ollama", loaded.Provider)
}

func TestLoadFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".llmpc", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// A hand-edited file carrying only a model name.
	require.NoError(t, os.WriteFile(path, []byte(`{"model": "gpt-4"}`), 0o644))

	cfg, err := LoadOrInit(dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, ModeBlocks, cfg.Mode)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".llmpc", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadOrInit(dir)
	assert.Error(t, err)
}
