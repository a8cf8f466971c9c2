package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultApplicationConfig(t *testing.T) {
	config := DefaultApplicationConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, uint32(0x68B0D8FF), config.ClearColor)
	assert.Equal(t, core.InfoLevel, config.Level())

	clr := config.ClearColorVec()
	want := math.NewVec4(0x68/255.0, 0xB0/255.0, 0xD8/255.0, 1).Elements()
	got := clr.Elements()
	assert.InDeltaSlice(t, want[:], got[:], 1e-6)
}

func TestParseApplicationConfig(t *testing.T) {
	config, err := ParseApplicationConfig([]byte(`
name = "cube"
start_width = 800
start_height = 0
log_level = "debug"
clear_color = 0x000000FF
headless = true
frame_limit = 3
vertex_shader = ""
`))
	require.NoError(t, err)

	assert.Equal(t, "cube", config.Name)
	assert.Equal(t, uint32(800), config.StartWidth)
	// clamped
	assert.Equal(t, uint32(1), config.StartHeight)
	assert.Equal(t, core.DebugLevel, config.Level())
	assert.Equal(t, uint32(0xFF), config.ClearColor)
	assert.True(t, config.Headless)
	assert.Equal(t, uint64(3), config.FrameLimit)
	// untouched keys keep their defaults
	assert.Equal(t, "assets", config.AssetsDir)
	assert.Equal(t, "shaders/frag.spv", config.FragmentShader)
}

func TestParseApplicationConfigErrors(t *testing.T) {
	_, err := ParseApplicationConfig([]byte(`vertex_shader = ""`))
	assert.ErrorIs(t, err, errMissingShaders)

	_, err = ParseApplicationConfig([]byte(`name = ""`))
	assert.ErrorIs(t, err, errEmptyName)

	_, err = ParseApplicationConfig([]byte(`log_level = "loud"`))
	assert.Error(t, err)

	_, err = ParseApplicationConfig([]byte(`start_width = "wide"`))
	assert.Error(t, err)
}

func TestLoadApplicationConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pica.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"from-file\"\nfield_of_view = 200.0\n"), 0o644))

	config, err := LoadApplicationConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", config.Name)
	assert.Equal(t, float32(80), config.FieldOfView)

	_, err = LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestHeadlessDefaultFrameLimit(t *testing.T) {
	config, err := ParseApplicationConfig([]byte(`headless = true`))
	require.NoError(t, err)
	assert.Equal(t, uint64(60), config.FrameLimit)
}
