package metadata

import "github.com/spaghettifunk/pica/engine/math"

/** @brief Generic invalid identifier for backend resources. */
const InvalidID uint32 = 0

type BufferID uint32

const (
	/** @brief Vertical field of view of the scene projection, in degrees. */
	DefaultFieldOfView float32 = 80.0
	DefaultNearClip    float32 = 0.01
	DefaultFarClip     float32 = 1000.0
)

/** @brief Supported renderer backend types. */
type RendererBackendType int

const (
	RendererBackendTypeVulkan RendererBackendType = iota
	RendererBackendTypeHeadless
)

func (t RendererBackendType) String() string {
	switch t {
	case RendererBackendTypeVulkan:
		return "vulkan"
	case RendererBackendTypeHeadless:
		return "headless"
	}
	return "unknown"
}

// Fixed scene lighting.
var (
	LightDirection  = math.NewVec4(0.0, 0.0, -1.0, 0.0)
	LightHalfVector = math.NewVec4(0.0, 0.0, -1.0, 0.0)
	LightColor      = math.NewVec4(1.0, 1.0, 1.0, 1.0)
)

// ColorFromRGBA8 unpacks a 0xRRGGBBAA value into normalized components.
func ColorFromRGBA8(rgba uint32) math.Vec4 {
	return math.NewVec4(
		float32((rgba>>24)&0xFF)/255.0,
		float32((rgba>>16)&0xFF)/255.0,
		float32((rgba>>8)&0xFF)/255.0,
		float32(rgba&0xFF)/255.0,
	)
}
