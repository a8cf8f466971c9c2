package renderer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/headless"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Backend = (*headless.Backend)(nil)

func triangle() []metadata.Vertex {
	n := math.NewVec3(0, 0, 1)
	return []metadata.Vertex{
		metadata.NewVertex(math.NewVec3(-1, -1, 0), math.NewVec2(0, 0), n),
		metadata.NewVertex(math.NewVec3(1, -1, 0), math.NewVec2(1, 0), n),
		metadata.NewVertex(math.NewVec3(0, 1, 0), math.NewVec2(0.5, 1), n),
	}
}

func newRenderer(t *testing.T) (*Renderer, *headless.Backend) {
	t.Helper()
	b := headless.New(800, 600)
	r, err := New(b, Config{Width: 800, Height: 600})
	require.NoError(t, err)
	return r, b
}

func register(t *testing.T, r *Renderer) metadata.MeshHandle {
	t.Helper()
	h, err := r.RegisterMesh(triangle(), loaders.WhiteTexture(), metadata.DefaultMaterial())
	require.NoError(t, err)
	return h
}

func TestNewConfiguresProgram(t *testing.T) {
	_, b := newRenderer(t)

	require.Len(t, b.CallsOf(headless.CallLoadProgram), 1)
	require.Len(t, b.CallsOf(headless.CallSetAttributeLayout), 1)
	require.Len(t, b.CallsOf(headless.CallSetTextureCombiner), 1)
	_, _, programs := b.LiveResources()
	assert.Equal(t, 1, programs)
}

func TestNewRejectsZeroSize(t *testing.T) {
	_, err := New(headless.New(0, 0), Config{})
	assert.Error(t, err)
}

func TestNewFailsOnProgramLoad(t *testing.T) {
	b := headless.New(800, 600)
	b.Fail[headless.CallLoadProgram] = errors.New("bad blob")
	_, err := New(b, Config{Width: 800, Height: 600})
	assert.ErrorIs(t, err, core.ErrProgramLoad)
}

type missingUniformBackend struct {
	*headless.Backend
}

func (m missingUniformBackend) UniformLocation(program metadata.ProgramID, name string) (metadata.UniformLocation, error) {
	if name == metadata.UniformLightHalfVec {
		return metadata.InvalidUniformLocation, nil
	}
	return m.Backend.UniformLocation(program, name)
}

func TestNewFailsOnMissingUniform(t *testing.T) {
	b := headless.New(800, 600)
	_, err := New(missingUniformBackend{b}, Config{Width: 800, Height: 600})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUniformNotFound)
	assert.Contains(t, err.Error(), metadata.UniformLightHalfVec)

	_, _, programs := b.LiveResources()
	assert.Zero(t, programs, "program must be destroyed when setup fails")
}

// fan returns n distinct vertices offset by i, so each registration is recognisable.
func fan(i, n int) []metadata.Vertex {
	out := make([]metadata.Vertex, n)
	for j := range out {
		out[j] = metadata.NewVertex(
			math.NewVec3(float32(i), float32(j), 0),
			math.NewVec2(float32(j)/float32(n), 0),
			math.NewVec3(0, 0, 1))
	}
	return out
}

func TestRegisterMeshSurvivesGrowth(t *testing.T) {
	r, b := newRenderer(t)

	type registered struct {
		vertices []metadata.Vertex
		material metadata.Material
		texture  metadata.TextureID
		width    uint32
	}

	// the registry starts with room for 10
	const count = 25
	want := make([]registered, count)
	for i := 0; i < count; i++ {
		grey := uint8(i * 10)
		texture, err := loaders.CheckerTexture(i+1, 1, color.RGBA{R: grey, G: grey, B: grey, A: 255}, color.RGBA{A: 255})
		require.NoError(t, err)

		vertices := fan(i, 3+i%4)
		material := metadata.NewMaterialFromDiffuse(math.NewVec4(float32(i)/count, 0, 1, 1))
		h, err := r.RegisterMesh(vertices, texture, material)
		require.NoError(t, err)
		require.Equal(t, metadata.MeshHandle(i), h)

		mesh, ok := r.Mesh(h)
		require.True(t, ok)
		want[i] = registered{vertices: vertices, material: material, texture: mesh.Texture.ID, width: uint32(i + 1)}
	}
	assert.Equal(t, count, r.MeshCount())

	seen := make(map[metadata.TextureID]bool)
	for i, w := range want {
		mesh, ok := r.Mesh(metadata.MeshHandle(i))
		require.True(t, ok, "mesh %d", i)
		assert.Equal(t, w.material, mesh.Material, "mesh %d", i)
		assert.Equal(t, uint32(len(w.vertices)), mesh.VertexCount, "mesh %d", i)
		assert.Equal(t, w.texture, mesh.Texture.ID, "mesh %d", i)
		assert.Equal(t, w.width, mesh.Texture.Width, "mesh %d", i)
		assert.False(t, mesh.Indexed())

		assert.False(t, seen[mesh.Texture.ID], "texture %d shared", mesh.Texture.ID)
		seen[mesh.Texture.ID] = true

		vertices, ok := b.BufferVertices(mesh.VertexBuffer)
		require.True(t, ok, "mesh %d", i)
		assert.Equal(t, w.vertices, vertices, "mesh %d", i)
	}
}

func TestRegisterMeshRejectsEmptyInput(t *testing.T) {
	r, b := newRenderer(t)

	_, err := r.RegisterMesh(nil, loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrEmptyVertices)

	_, err = r.RegisterMesh(triangle(), nil, metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrEmptyTexture)

	_, err = r.RegisterIndexedMesh(triangle(), nil, loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrEmptyIndices)

	_, err = r.RegisterIndexedMesh(triangle(), []uint16{0, 1, 3}, loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	assert.Zero(t, r.MeshCount())
	assert.Empty(t, b.CallsOf(headless.CallAllocVertexBuffer))
	assert.Empty(t, b.CallsOf(headless.CallImportTexture))
}

func TestRegisterMeshReleasesOnBadTexture(t *testing.T) {
	r, b := newRenderer(t)

	_, err := r.RegisterIndexedMesh(triangle(), []uint16{0, 1, 2}, []byte("not a png"), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrTextureImport)
	assert.Zero(t, r.MeshCount())

	buffers, textures, _ := b.LiveResources()
	assert.Zero(t, buffers)
	assert.Zero(t, textures)
	assert.Len(t, b.CallsOf(headless.CallFreeBuffer), 2)
}

func TestRegisterMeshFilterFailure(t *testing.T) {
	r, b := newRenderer(t)
	filterErr := errors.New("sampler rejected")
	b.Fail[headless.CallSetTextureFilter] = filterErr

	_, err := r.RegisterMesh(triangle(), loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrTextureImport)
	assert.ErrorIs(t, err, filterErr)
	assert.Zero(t, r.MeshCount())

	buffers, textures, _ := b.LiveResources()
	assert.Zero(t, buffers)
	assert.Zero(t, textures)
}

func TestRegisterMeshAllocFailure(t *testing.T) {
	r, b := newRenderer(t)
	b.Fail[headless.CallAllocIndexBuffer] = errors.New("out of memory")

	_, err := r.RegisterIndexedMesh(triangle(), []uint16{0, 1, 2}, loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrBackendAlloc)
	buffers, _, _ := b.LiveResources()
	assert.Zero(t, buffers, "vertex buffer must be freed")
	assert.Empty(t, b.CallsOf(headless.CallImportTexture))
}

func TestRegisterMeshSetsFilters(t *testing.T) {
	r, b := newRenderer(t)
	h := register(t, r)

	mesh, _ := r.Mesh(h)
	info, ok := b.TextureInfo(mesh.Texture.ID)
	require.True(t, ok)
	assert.Equal(t, metadata.TextureFilterModeLinear, info.Magnify)
	assert.Equal(t, metadata.TextureFilterModeNearest, info.Minify)
}

func TestEmptyFrame(t *testing.T) {
	r, b := newRenderer(t)
	b.Reset()

	require.NoError(t, r.RenderFrame())
	assert.Empty(t, b.Draws())
	assert.Len(t, b.CallsOf(headless.CallBeginFrame), 1)
	assert.Len(t, b.CallsOf(headless.CallEndFrame), 1)
	assert.Equal(t, uint64(1), r.FrameNumber())
}

func TestRenderTriangle(t *testing.T) {
	r, b := newRenderer(t)
	h := register(t, r)
	b.Reset()

	r.Enqueue(h, math.NewMat4Identity())
	require.NoError(t, r.RenderFrame())

	require.Len(t, b.Draws(), 1)
	d := b.Draws()[0]
	mesh, _ := r.Mesh(h)

	assert.False(t, d.Indexed)
	assert.Equal(t, uint32(0), d.First)
	assert.Equal(t, uint32(3), d.Count)
	assert.Equal(t, mesh.VertexBuffer, d.VertexBuffer)
	assert.Equal(t, mesh.Texture.ID, d.Texture)

	want := math.NewMat4Perspective(math.DegToRad(80), 800.0/600.0, 0.01, 1000)
	assert.InDeltaSlice(t, want.Data[:], d.Projection.Data[:], 1e-6)
	assert.Equal(t, math.NewMat4Identity(), d.ModelView)
	assert.Equal(t, metadata.DefaultMaterial(), d.Material)
	assert.Equal(t, math.NewVec4(0, 0, -1, 0), d.LightVec)
	assert.Equal(t, math.NewVec4(0, 0, -1, 0), d.LightHalfVec)
	assert.Equal(t, math.NewVec4(1, 1, 1, 1), d.LightColor)

	assert.Zero(t, r.QueueLength())
}

func TestUniformOrder(t *testing.T) {
	r, b := newRenderer(t)
	h := register(t, r)
	b.Reset()

	r.Enqueue(h, math.NewMat4Identity())
	require.NoError(t, r.RenderFrame())

	var kinds []headless.CallKind
	var locations []metadata.UniformLocation
	for _, c := range b.Calls() {
		switch c.Kind {
		case headless.CallBeginFrame, headless.CallEndFrame, headless.CallBindProgram:
			continue
		}
		kinds = append(kinds, c.Kind)
		locations = append(locations, c.Location)
	}

	assert.Equal(t, []headless.CallKind{
		headless.CallSetUniformMat4,
		headless.CallSetUniformMat4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallSetUniformVec4,
		headless.CallBindTexture,
		headless.CallBindVertexBuffer,
		headless.CallDrawArrays,
	}, kinds)
	assert.Equal(t, []metadata.UniformLocation{0, 4, 11, 12, 13, 14, 8, 9, 10}, locations[:9])
}

func TestSubmissionOrder(t *testing.T) {
	r, b := newRenderer(t)
	a := register(t, r)
	c := register(t, r)
	b.Reset()

	ma := math.NewMat4Translation(math.NewVec3(1, 0, 0))
	mc := math.NewMat4Translation(math.NewVec3(0, 1, 0))
	r.Enqueue(a, ma)
	r.Enqueue(c, mc)
	r.Enqueue(a, mc)
	assert.Equal(t, 3, r.QueueLength())
	require.NoError(t, r.RenderFrame())

	meshA, _ := r.Mesh(a)
	meshC, _ := r.Mesh(c)
	draws := b.Draws()
	require.Len(t, draws, 3)
	assert.Equal(t, meshA.VertexBuffer, draws[0].VertexBuffer)
	assert.Equal(t, ma, draws[0].ModelView)
	assert.Equal(t, meshC.VertexBuffer, draws[1].VertexBuffer)
	assert.Equal(t, mc, draws[1].ModelView)
	assert.Equal(t, meshA.VertexBuffer, draws[2].VertexBuffer)
	assert.Equal(t, mc, draws[2].ModelView)

	// the queue does not persist across frames
	b.Reset()
	require.NoError(t, r.RenderFrame())
	assert.Empty(t, b.Draws())
}

func TestInvalidHandleIsSkipped(t *testing.T) {
	r, b := newRenderer(t)
	h := register(t, r)
	b.Reset()

	r.Enqueue(metadata.MeshHandle(7), math.NewMat4Identity())
	r.Enqueue(h, math.NewMat4Identity())
	r.Enqueue(metadata.InvalidMeshHandle, math.NewMat4Identity())

	err := r.RenderFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidHandle)
	assert.Len(t, b.Draws(), 1)
	assert.Zero(t, r.QueueLength())
	assert.Len(t, b.CallsOf(headless.CallEndFrame), 1)
}

func TestIndexedDraw(t *testing.T) {
	r, b := newRenderer(t)
	quad := append(triangle(), metadata.NewVertex(math.NewVec3(1, 1, 0), math.NewVec2(1, 1), math.NewVec3(0, 0, 1)))
	h, err := r.RegisterIndexedMesh(quad, []uint16{0, 1, 2, 2, 1, 3}, loaders.WhiteTexture(), metadata.DefaultMaterial())
	require.NoError(t, err)

	mesh, _ := r.Mesh(h)
	assert.True(t, mesh.Indexed())
	indices, ok := b.BufferIndices(mesh.IndexBuffer)
	require.True(t, ok)
	assert.Equal(t, []uint16{0, 1, 2, 2, 1, 3}, indices)

	r.Enqueue(h, math.NewMat4Identity())
	require.NoError(t, r.RenderFrame())
	require.Len(t, b.Draws(), 1)
	assert.True(t, b.Draws()[0].Indexed)
	assert.Equal(t, uint32(6), b.Draws()[0].Count)
	assert.Equal(t, mesh.IndexBuffer, b.Draws()[0].IndexBuffer)
}

func TestSwapchainBootingSkipsFrame(t *testing.T) {
	r, b := newRenderer(t)
	h := register(t, r)
	b.Fail[headless.CallBeginFrame] = core.ErrSwapchainBooting

	r.Enqueue(h, math.NewMat4Identity())
	require.NoError(t, r.RenderFrame())
	assert.Empty(t, b.Draws())
	assert.Empty(t, b.CallsOf(headless.CallEndFrame))
	assert.Zero(t, r.QueueLength())
}

func TestResizedUpdatesProjection(t *testing.T) {
	r, b := newRenderer(t)

	require.NoError(t, r.Resized(1000, 500))
	want := math.NewMat4Perspective(math.DegToRad(80), 2, 0.01, 1000)
	got := r.Projection()
	assert.InDeltaSlice(t, want.Data[:], got.Data[:], 1e-6)
	w, h := b.Size()
	assert.Equal(t, uint32(1000), w)
	assert.Equal(t, uint32(500), h)

	// minimized
	require.NoError(t, r.Resized(0, 0))
	got = r.Projection()
	assert.InDeltaSlice(t, want.Data[:], got.Data[:], 1e-6)
}

func TestShutdownReleasesOnce(t *testing.T) {
	r, b := newRenderer(t)
	register(t, r)
	_, err := r.RegisterIndexedMesh(triangle(), []uint16{0, 1, 2}, loaders.WhiteTexture(), metadata.DefaultMaterial())
	require.NoError(t, err)

	require.NoError(t, r.Shutdown())
	buffers, textures, programs := b.LiveResources()
	assert.Zero(t, buffers)
	assert.Zero(t, textures)
	assert.Zero(t, programs)
	assert.Len(t, b.CallsOf(headless.CallFreeBuffer), 3)
	assert.Len(t, b.CallsOf(headless.CallFreeTexture), 2)

	require.NoError(t, r.Shutdown())
	assert.Len(t, b.CallsOf(headless.CallFreeBuffer), 3)
	assert.Len(t, b.CallsOf(headless.CallDestroyProgram), 1)

	_, err = r.RegisterMesh(triangle(), loaders.WhiteTexture(), metadata.DefaultMaterial())
	assert.ErrorIs(t, err, core.ErrRendererShutdown)
	assert.ErrorIs(t, r.RenderFrame(), core.ErrRendererShutdown)
}
