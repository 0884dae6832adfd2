package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, batch.DefaultConfig(), cfg.BatchConfig())
	assert.Equal(t, mgl32.Vec4{0.1, 0.1, 0.1, 1}, cfg.ClearColor())
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	doc := `
[window]
name = "demo"
width = 800
height = 600

[render]
backend = "headless"
clear_color = [0.0, 0.5, 1.0, 1.0]
static_framebuffer_count = 1

[batch]
max_vertices = 4000
max_indices = 6000

[workers]
count = 8
`
	cfg, err := ParseConfig(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Name)
	assert.Equal(t, int32(800), cfg.Window.Width)
	assert.Equal(t, int32(100), cfg.Window.X, "unset keys keep their default")
	assert.True(t, cfg.Window.VSync)
	assert.Equal(t, "headless", cfg.Render.Backend)
	assert.Equal(t, mgl32.Vec4{0, 0.5, 1, 1}, cfg.ClearColor())
	assert.Equal(t, 1, cfg.Render.StaticFramebufferCount)
	assert.Equal(t, batch.Config{MaxVertices: 4000, MaxIndices: 6000}, cfg.BatchConfig())
	assert.Equal(t, 8, cfg.Workers.Count)
	assert.Equal(t, 64, cfg.Workers.QueueSize)
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("[batch]\ntexture_slots = 16\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texture_slots")
}

func TestParseConfigValidates(t *testing.T) {
	doc := `
[window]
width = 0

[render]
backend = "vulkan"

[batch]
max_vertices = 3

[log]
level = "loud"

[workers]
count = 0
`
	_, err := ParseConfig(strings.NewReader(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoWorkers)
	for _, want := range []string{"window size", "vulkan", "at least one quad", "loud"} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = ParseConfig(strings.NewReader("[window\n"))
	assert.Error(t, err, "malformed documents fail to decode")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "ember.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))
	app, err := LoadApplicationConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", app.Log.Level)
	assert.Equal(t, path, app.ConfigPath)

	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"nope\"\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, path)
}
