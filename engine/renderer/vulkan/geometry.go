package vulkan

import vk "github.com/goki/vulkan"

type vulkanBufferKind int

const (
	vulkanBufferKindVertex vulkanBufferKind = iota
	vulkanBufferKindIndex
)

/**
 * @brief Internal record of a geometry buffer handed out to the renderer.
 * The data is loaded directly into a host visible buffer.
 */
type vulkanGeometryData struct {
	Kind   vulkanBufferKind
	Buffer *VulkanBuffer
	/** @brief The vertex or index count. */
	Count uint32
	/** @brief The size of each element. */
	ElementSize uint32
}

func (g *vulkanGeometryData) indexType() vk.IndexType {
	return vk.IndexTypeUint16
}

