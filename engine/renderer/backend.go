package renderer

import (
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// ProgramBackend compiles shader programs and configures their fixed inputs.
type ProgramBackend interface {
	LoadProgram(stages []metadata.ShaderSource) (metadata.ProgramID, error)
	UniformLocation(program metadata.ProgramID, name string) (metadata.UniformLocation, error)
	SetAttributeLayout(program metadata.ProgramID, layout metadata.VertexLayout) error
	SetTextureCombiner(program metadata.ProgramID, combiner metadata.TextureCombiner) error
	DestroyProgram(program metadata.ProgramID)
}

// ResourceBackend owns GPU-accessible buffers and textures. Allocation
// functions copy their input; the caller keeps ownership of its slices.
type ResourceBackend interface {
	AllocVertexBuffer(vertices []metadata.Vertex) (metadata.BufferID, error)
	AllocIndexBuffer(indices []uint16) (metadata.BufferID, error)
	FreeBuffer(buffer metadata.BufferID)
	ImportTexture(data []byte) (metadata.Texture, error)
	SetTextureFilter(texture metadata.TextureID, magnify, minify metadata.TextureFilter) error
	FreeTexture(texture metadata.TextureID)
}

// DrawBackend records the per-frame state changes and draw calls.
type DrawBackend interface {
	BeginFrame() error
	BindProgram(program metadata.ProgramID) error
	SetUniformMat4(location metadata.UniformLocation, value math.Mat4)
	SetUniformVec4(location metadata.UniformLocation, value math.Vec4)
	BindTexture(unit uint32, texture metadata.TextureID)
	BindVertexBuffer(buffer metadata.BufferID, layout metadata.VertexLayout)
	BindIndexBuffer(buffer metadata.BufferID)
	DrawArrays(first, count uint32) error
	DrawElements(count uint32) error
	EndFrame() error
}

// Backend is everything the renderer needs from a graphics API.
type Backend interface {
	ProgramBackend
	ResourceBackend
	DrawBackend
	Resized(width, height uint32) error
	Shutdown() error
}
