package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/pica/engine/core"
)

/**
 * @brief Descriptor state shared by every draw: set 0 holds the per-draw
 * uniform block through a dynamic offset, set 1 holds the bound texture's
 * combined image sampler.
 */
type VulkanDescriptors struct {
	UniformLayout vk.DescriptorSetLayout
	TextureLayout vk.DescriptorSetLayout

	UniformPool vk.DescriptorPool
	TexturePool vk.DescriptorPool

	/** @brief One uniform set per frame in flight. */
	UniformSets []vk.DescriptorSet
}

func descriptorSetLayoutCreate(context *VulkanContext, descriptorType vk.DescriptorType, stage vk.ShaderStageFlagBits) (vk.DescriptorSetLayout, error) {
	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  descriptorType,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stage),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return layout, nil
}

func descriptorPoolCreate(context *VulkanContext, descriptorType vk.DescriptorType, maxSets uint32, flags vk.DescriptorPoolCreateFlagBits) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(flags),
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            descriptorType,
			DescriptorCount: maxSets,
		}},
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return pool, nil
}

func DescriptorsCreate(context *VulkanContext, frameCount uint32) (*VulkanDescriptors, error) {
	d := &VulkanDescriptors{}
	var err error
	if d.UniformLayout, err = descriptorSetLayoutCreate(context, vk.DescriptorTypeUniformBufferDynamic, vk.ShaderStageVertexBit); err != nil {
		return nil, err
	}
	if d.TextureLayout, err = descriptorSetLayoutCreate(context, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFragmentBit); err != nil {
		d.Destroy(context)
		return nil, err
	}
	if d.UniformPool, err = descriptorPoolCreate(context, vk.DescriptorTypeUniformBufferDynamic, frameCount, 0); err != nil {
		d.Destroy(context)
		return nil, err
	}
	if d.TexturePool, err = descriptorPoolCreate(context, vk.DescriptorTypeCombinedImageSampler, VULKAN_MAX_TEXTURE_COUNT, vk.DescriptorPoolCreateFreeDescriptorSetBit); err != nil {
		d.Destroy(context)
		return nil, err
	}

	d.UniformSets = make([]vk.DescriptorSet, frameCount)
	for i := range d.UniformSets {
		if d.UniformSets[i], err = allocateDescriptorSet(context, d.UniformPool, d.UniformLayout); err != nil {
			d.Destroy(context)
			return nil, err
		}
	}
	return d, nil
}

func allocateDescriptorSet(context *VulkanContext, pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &set); res != vk.Success {
		err := fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return set, nil
}

// WriteUniformSet points the frame's uniform set at one register block of buffer.
func (d *VulkanDescriptors) WriteUniformSet(context *VulkanContext, frame uint32, buffer *VulkanBuffer, blockSize uint64) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          d.UniformSets[frame],
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(blockSize),
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// AllocateTextureSet allocates a sampler set and points it at view through sampler.
func (d *VulkanDescriptors) AllocateTextureSet(context *VulkanContext, view vk.ImageView, sampler vk.Sampler) (vk.DescriptorSet, error) {
	set, err := allocateDescriptorSet(context, d.TexturePool, d.TextureLayout)
	if err != nil {
		return nil, err
	}
	d.WriteTextureSet(context, set, view, sampler)
	return set, nil
}

func (d *VulkanDescriptors) WriteTextureSet(context *VulkanContext, set vk.DescriptorSet, view vk.ImageView, sampler vk.Sampler) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

func (d *VulkanDescriptors) FreeTextureSet(context *VulkanContext, set vk.DescriptorSet) {
	if set == nil {
		return
	}
	vk.FreeDescriptorSets(context.Device.LogicalDevice, d.TexturePool, 1, &set)
}

// Layouts returns the set layouts in binding order.
func (d *VulkanDescriptors) Layouts() []vk.DescriptorSetLayout {
	return []vk.DescriptorSetLayout{d.UniformLayout, d.TextureLayout}
}

func (d *VulkanDescriptors) Destroy(context *VulkanContext) {
	// Destroying a pool frees its sets.
	if d.TexturePool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, d.TexturePool, context.Allocator)
		d.TexturePool = nil
	}
	if d.UniformPool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, d.UniformPool, context.Allocator)
		d.UniformPool = nil
	}
	d.UniformSets = nil
	if d.TextureLayout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, d.TextureLayout, context.Allocator)
		d.TextureLayout = nil
	}
	if d.UniformLayout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, d.UniformLayout, context.Allocator)
		d.UniformLayout = nil
	}
}
