package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

/**
 * @brief Backend data of an imported texture.
 */
type vulkanTextureData struct {
	Image   *VulkanImage
	Sampler vk.Sampler
	/** @brief The set bound at VULKAN_DESCRIPTOR_SET_TEXTURE when this texture is drawn. */
	DescriptorSet vk.DescriptorSet
	Magnify       metadata.TextureFilter
	Minify        metadata.TextureFilter
}

func samplerFilter(filter metadata.TextureFilter) vk.Filter {
	if filter == metadata.TextureFilterModeLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func samplerCreate(context *VulkanContext, magnify, minify metadata.TextureFilter) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               samplerFilter(magnify),
		MinFilter:               samplerFilter(minify),
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		MipLodBias:              0.0,
		MinLod:                  0.0,
		MaxLod:                  0.0,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler); res != vk.Success {
		err := fmt.Errorf("vkCreateSampler failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return sampler, nil
}

// TextureCreate decodes data and uploads it as a sampled RGBA8 image through a staging buffer.
func TextureCreate(context *VulkanContext, descriptors *VulkanDescriptors, data []byte) (*vulkanTextureData, *loaders.ImageResourceData, error) {
	img, err := loaders.DecodeImage(data, false)
	if err != nil {
		return nil, nil, err
	}

	staging, err := BufferCreate(
		context,
		uint64(len(img.Pixels)),
		vk.BufferUsageTransferSrcBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, img.Pixels); err != nil {
		return nil, nil, err
	}

	image, err := ImageCreate(
		context,
		vk.ImageType2d,
		img.Width,
		img.Height,
		vk.FormatR8g8b8a8Unorm,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, nil, err
	}

	if err := uploadImage(context, image, staging); err != nil {
		image.ImageDestroy(context)
		return nil, nil, err
	}

	texture := &vulkanTextureData{
		Image:   image,
		Magnify: metadata.TextureFilterModeLinear,
		Minify:  metadata.TextureFilterModeLinear,
	}
	if texture.Sampler, err = samplerCreate(context, texture.Magnify, texture.Minify); err != nil {
		image.ImageDestroy(context)
		return nil, nil, err
	}
	if texture.DescriptorSet, err = descriptors.AllocateTextureSet(context, image.View, texture.Sampler); err != nil {
		texture.Destroy(context, descriptors)
		return nil, nil, err
	}
	return texture, img, nil
}

func uploadImage(context *VulkanContext, image *VulkanImage, staging *VulkanBuffer) error {
	pool := context.Device.GraphicsCommandPool
	queue := context.Device.GraphicsQueue

	cmd, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	if err := image.ImageTransitionLayout(cmd, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		cmd.Free(context, pool)
		return err
	}
	image.ImageCopyFromBuffer(staging, cmd)
	if err := image.ImageTransitionLayout(cmd, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		cmd.Free(context, pool)
		return err
	}
	return cmd.EndSingleUse(context, pool, queue)
}

// SetFilter replaces the sampler and repoints the descriptor set at it.
// The caller must make sure the old sampler is no longer in use.
func (t *vulkanTextureData) SetFilter(context *VulkanContext, descriptors *VulkanDescriptors, magnify, minify metadata.TextureFilter) error {
	if t.Magnify == magnify && t.Minify == minify && t.Sampler != nil {
		return nil
	}
	sampler, err := samplerCreate(context, magnify, minify)
	if err != nil {
		return err
	}
	if t.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, t.Sampler, context.Allocator)
	}
	t.Sampler = sampler
	t.Magnify = magnify
	t.Minify = minify
	descriptors.WriteTextureSet(context, t.DescriptorSet, t.Image.View, t.Sampler)
	return nil
}

func (t *vulkanTextureData) Destroy(context *VulkanContext, descriptors *VulkanDescriptors) {
	if t.DescriptorSet != nil {
		descriptors.FreeTextureSet(context, t.DescriptorSet)
		t.DescriptorSet = nil
	}
	if t.Sampler != nil {
		vk.DestroySampler(context.Device.LogicalDevice, t.Sampler, context.Allocator)
		t.Sampler = nil
	}
	if t.Image != nil {
		t.Image.ImageDestroy(context)
		t.Image = nil
	}
}
