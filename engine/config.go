package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

const (
	defaultClearColor uint32 = 0x68B0D8FF
	// largest window edge accepted from a configuration file
	maxWindowEdge uint32 = 16384
	// frames rendered by a headless run without frame_limit
	defaultHeadlessFrames uint64 = 60
)

var (
	errMissingShaders = errors.New("vertex_shader and fragment_shader are required unless headless")
	errEmptyName      = errors.New("application name is empty")
)

// DefaultApplicationConfig returns the configuration used when no file is given.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Pica",
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     400,
		StartHeight:    240,
		LogLevel:       "info",
		AssetsDir:      "assets",
		WatchAssets:    true,
		VertexShader:   "shaders/vert.spv",
		FragmentShader: "shaders/frag.spv",
		ClearColor:     defaultClearColor,
		FieldOfView:    metadata.DefaultFieldOfView,
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults and validates the result.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseApplicationConfig(data)
}

func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config line %d column %d: %w", row, col, err)
		}
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate clamps the window size and checks that the required fields are set.
func (c *ApplicationConfig) Validate() error {
	if c.Name == "" {
		return errEmptyName
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	c.StartWidth = math.Clamp(c.StartWidth, 1, maxWindowEdge)
	c.StartHeight = math.Clamp(c.StartHeight, 1, maxWindowEdge)
	if c.FieldOfView <= 0 || c.FieldOfView >= 180 {
		c.FieldOfView = metadata.DefaultFieldOfView
	}
	if c.Headless {
		if c.FrameLimit == 0 {
			c.FrameLimit = defaultHeadlessFrames
		}
		return nil
	}
	if c.VertexShader == "" || c.FragmentShader == "" {
		return errMissingShaders
	}
	return nil
}
