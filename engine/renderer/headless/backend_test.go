package headless

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() []metadata.Vertex {
	n := math.NewVec3(0, 0, 1)
	return []metadata.Vertex{
		metadata.NewVertex(math.NewVec3(-1, -1, 0), math.NewVec2(0, 0), n),
		metadata.NewVertex(math.NewVec3(1, -1, 0), math.NewVec2(1, 0), n),
		metadata.NewVertex(math.NewVec3(0, 1, 0), math.NewVec2(0.5, 1), n),
	}
}

func TestUniformRegisters(t *testing.T) {
	b := New(640, 480)
	program, err := b.LoadProgram(nil)
	require.NoError(t, err)

	for _, name := range metadata.UniformNames {
		loc, err := b.UniformLocation(program, name)
		require.NoError(t, err, name)
		assert.Equal(t, metadata.UniformRegisters[name], loc)
	}

	_, err = b.UniformLocation(program, "fog")
	assert.Error(t, err)
	_, err = b.UniformLocation(program+1, metadata.UniformProjection)
	assert.Error(t, err)
}

func TestResourceLifetime(t *testing.T) {
	b := New(640, 480)

	vbo, err := b.AllocVertexBuffer(triangle())
	require.NoError(t, err)
	ibo, err := b.AllocIndexBuffer([]uint16{0, 1, 2})
	require.NoError(t, err)
	tex, err := b.ImportTexture(loaders.WhiteTexture())
	require.NoError(t, err)

	assert.NotEqual(t, metadata.BufferID(metadata.InvalidID), vbo)
	assert.NotEqual(t, vbo, ibo)
	assert.Equal(t, uint32(1), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, uint8(4), tex.ChannelCount)

	verts, ok := b.BufferVertices(vbo)
	require.True(t, ok)
	assert.Equal(t, triangle(), verts)

	require.NoError(t, b.SetTextureFilter(tex.ID, metadata.TextureFilterModeLinear, metadata.TextureFilterModeNearest))
	info, ok := b.TextureInfo(tex.ID)
	require.True(t, ok)
	assert.Equal(t, metadata.TextureFilterModeLinear, info.Magnify)
	assert.Equal(t, metadata.TextureFilterModeNearest, info.Minify)

	b.FreeBuffer(vbo)
	b.FreeBuffer(ibo)
	b.FreeTexture(tex.ID)
	buffers, textures, _ := b.LiveResources()
	assert.Zero(t, buffers)
	assert.Zero(t, textures)
}

func TestImportTextureRejectsGarbage(t *testing.T) {
	b := New(640, 480)
	_, err := b.ImportTexture([]byte{1, 2, 3})
	assert.Error(t, err)
	_, textures, _ := b.LiveResources()
	assert.Zero(t, textures)
}

func TestDrawRequiresFrameAndBindings(t *testing.T) {
	b := New(640, 480)
	vbo, err := b.AllocVertexBuffer(triangle())
	require.NoError(t, err)
	tex, err := b.ImportTexture(loaders.WhiteTexture())
	require.NoError(t, err)

	b.BindVertexBuffer(vbo, metadata.DefaultVertexLayout())
	b.BindTexture(0, tex.ID)
	assert.Error(t, b.DrawArrays(0, 3), "draw outside frame")

	require.NoError(t, b.BeginFrame())
	assert.Error(t, b.DrawArrays(1, 3), "range past the buffer")
	require.NoError(t, b.DrawArrays(0, 3))
	assert.Error(t, b.DrawElements(3), "no index buffer bound")
	require.NoError(t, b.EndFrame())

	assert.Error(t, b.EndFrame())
	assert.Len(t, b.Draws(), 1)
	assert.Equal(t, uint64(1), b.Frames())
}

func TestMat4Registers(t *testing.T) {
	b := New(640, 480)
	vbo, _ := b.AllocVertexBuffer(triangle())
	tex, _ := b.ImportTexture(loaders.WhiteTexture())

	m := math.NewMat4Translation(math.NewVec3(1, 2, 3))
	require.NoError(t, b.BeginFrame())
	b.SetUniformMat4(metadata.UniformRegisters[metadata.UniformModelView], m)
	b.BindTexture(0, tex.ID)
	b.BindVertexBuffer(vbo, metadata.DefaultVertexLayout())
	require.NoError(t, b.DrawArrays(0, 3))
	require.NoError(t, b.EndFrame())

	require.Len(t, b.Draws(), 1)
	assert.Equal(t, m, b.Draws()[0].ModelView)
}

func TestFailureInjection(t *testing.T) {
	b := New(640, 480)
	boom := errors.New("boom")
	b.Fail[CallAllocVertexBuffer] = boom

	_, err := b.AllocVertexBuffer(triangle())
	assert.ErrorIs(t, err, boom)
	buffers, _, _ := b.LiveResources()
	assert.Zero(t, buffers)
	assert.Len(t, b.CallsOf(CallAllocVertexBuffer), 1)
}
