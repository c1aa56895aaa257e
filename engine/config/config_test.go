package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 20*time.Millisecond, cfg.Throttle())
	assert.Equal(t, float32(0.7), cfg.Scene.GlyphScale)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
[window]
columns = 2
rows = 3

[renderer]
backend = "software"
vsync = false

[picking]
association = "points"
capture_z = true
batch_capacity = 16
`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Window.Columns)
	assert.Equal(t, 3, cfg.Window.Rows)
	assert.Equal(t, 1024, cfg.Window.Width, "unset keys keep their default")
	assert.Equal(t, selector.AssociationPoints, cfg.Picking.Association)
	assert.True(t, cfg.Picking.CaptureZ)
	assert.Len(t, cfg.SelectorOptions(), 4)

	backend, err := cfg.BackendType()
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeSoftware, backend)
	assert.Equal(t, renderer.PresentModeUncapped, cfg.PresentMode())
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[window]\ncolour = 1\n"},
		{"unknown association", "[picking]\nassociation = \"faces\"\n"},
		{"unknown backend", "[renderer]\nbackend = \"vulkan\"\n"},
		{"grid too large", "[window]\nwidth = 4\ncolumns = 8\n"},
		{"negative throttle", "[picking]\nthrottle_ms = -1\n"},
		{"syntax", "[window\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Picking.Association = selector.AssociationNone
	cfg.Window.Title = "tiles"
	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pick.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), def)
}
