package engine

import (
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`

	// Directory scanned for .mesh files.
	AssetsDir   string `toml:"assets_dir"`
	WatchAssets bool   `toml:"watch_assets"`

	// Compiled SPIR-V stages. Not required when headless.
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`

	// Background color as 0xRRGGBBAA.
	ClearColor uint32 `toml:"clear_color"`
	// Vertical field of view in degrees.
	FieldOfView float32 `toml:"field_of_view"`

	// Headless runs against the recording backend without a window.
	Headless bool `toml:"headless"`
	// Stop after this many frames. Zero runs until quit.
	FrameLimit uint64 `toml:"frame_limit"`
	// Enables the Vulkan validation layer.
	Debug bool `toml:"debug"`
}

// Level returns the parsed log level, falling back to info.
func (c *ApplicationConfig) Level() core.LogLevel {
	level, err := core.ParseLogLevel(c.LogLevel)
	if err != nil {
		return core.InfoLevel
	}
	return level
}

func (c *ApplicationConfig) ClearColorVec() math.Vec4 {
	return metadata.ColorFromRGBA8(c.ClearColor)
}
