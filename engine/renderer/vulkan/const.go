package vulkan

/**
 * @brief Max number of draws recorded in a single frame. Each draw takes
 * one aligned uniform block in the frame's uniform buffer.
 */
const VULKAN_MAX_DRAWS_PER_FRAME uint32 = 4096

/**
 * @brief Max number of live textures. Each texture owns one descriptor set.
 * @todo TODO: grow the descriptor pool on demand instead of failing imports.
 */
const VULKAN_MAX_TEXTURE_COUNT uint32 = 1024

/** @brief Size in bytes of one vec4 uniform register. */
const VULKAN_UNIFORM_REGISTER_SIZE uint32 = 16

/** @brief Frames recorded ahead of presentation. */
const VULKAN_MAX_FRAMES_IN_FLIGHT uint8 = 2

const (
	// Descriptor set holding the per-draw uniform block.
	VULKAN_DESCRIPTOR_SET_UNIFORMS uint32 = 0
	// Descriptor set holding the bound texture's sampler.
	VULKAN_DESCRIPTOR_SET_TEXTURE uint32 = 1
)
