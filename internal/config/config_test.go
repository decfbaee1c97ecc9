package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Rig.ConfThreshold)
	assert.Equal(t, 30, cfg.Rig.MaxTrail)
	assert.Equal(t, 1.0, cfg.Rig.RadarRangeM)
	assert.Equal(t, "phi3:latest", cfg.Chat.Model)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := `
rig:
  id: porch-rig
  min_box_px: 20
chat:
  model: llama3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "porch-rig", cfg.Rig.ID)
	assert.Equal(t, 20, cfg.Rig.MinBoxPx)
	assert.Equal(t, "llama3", cfg.Chat.Model)
	// Untouched fields keep defaults.
	assert.Equal(t, 0.25, cfg.Rig.ConfThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("PORT", "9999")
	t.Setenv("RIG_SOURCE", "sample.avi")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "sample.avi", cfg.Rig.Source)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rig: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
