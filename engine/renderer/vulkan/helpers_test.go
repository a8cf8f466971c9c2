package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpirvWords(t *testing.T) {
	words, err := spirvWords([]byte{0x03, 0x02, 0x23, 0x07, 0x01, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 1}, words)

	_, err = spirvWords([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = spirvWords(nil)
	assert.Error(t, err)
}

func TestVertexInputAttributes(t *testing.T) {
	attrs := VertexInputAttributes(metadata.DefaultVertexLayout())
	require.Len(t, attrs, 3)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attrs[0].Format)
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[1].Format)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(2), attrs[2].Location)
	assert.Equal(t, uint32(20), attrs[2].Offset)
}

func TestRegisterBytes(t *testing.T) {
	vr := New(nil, Config{})
	vr.SetUniformVec4(metadata.UniformRegisters[metadata.UniformLightColor], math.NewVec4(1, 0, 0, 0))
	vr.SetUniformMat4(metadata.UniformRegisters[metadata.UniformProjection], math.NewMat4Identity())

	out := vr.registerBytes()
	require.Len(t, out, metadata.UniformRegisterCount*16)
	// 1.0f little-endian is 00 00 80 3f.
	one := []byte{0, 0, 0x80, 0x3f}
	assert.Equal(t, one, out[0:4])
	assert.Equal(t, one, out[16+4:16+8])
	assert.Equal(t, one, out[10*16:10*16+4])
	assert.Equal(t, []byte{0, 0, 0, 0}, out[10*16+4:10*16+8])
}

func TestSamplerFilter(t *testing.T) {
	assert.Equal(t, vk.FilterLinear, samplerFilter(metadata.TextureFilterModeLinear))
	assert.Equal(t, vk.FilterNearest, samplerFilter(metadata.TextureFilterModeNearest))
}

func TestBeginFrameAfterShutdown(t *testing.T) {
	vr := New(nil, Config{})
	require.NoError(t, vr.Shutdown())
	assert.ErrorIs(t, vr.BeginFrame(), core.ErrRendererShutdown)
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate, false))
	assert.Equal(t, "VK_SUCCESS command successfully completed", VulkanResultString(vk.Success, true))
	assert.Equal(t, "VK_RESULT(12345)", VulkanResultString(vk.Result(12345), false))

	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))
}

func TestVulkanSafeStrings(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "abc\x00", VulkanSafeString("abc"))
	assert.Equal(t, "abc\x00", VulkanSafeString("abc\x00"))

	in := []string{"VK_KHR_surface"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_surface\x00"}, out)
	assert.Equal(t, "VK_KHR_surface", in[0], "input is left untouched")
}
