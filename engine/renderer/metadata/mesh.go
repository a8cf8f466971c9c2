package metadata

import (
	"github.com/spaghettifunk/pica/engine/math"
)

// MeshHandle identifies a registered mesh. It is the mesh's index in the
// registry and stays valid for the renderer's lifetime.
type MeshHandle int

const InvalidMeshHandle MeshHandle = -1

// Mesh is a registered, backend-resident drawable.
type Mesh struct {
	Material     Material
	VertexBuffer BufferID
	VertexCount  uint32
	// IndexBuffer is InvalidID for non-indexed meshes.
	IndexBuffer BufferID
	IndexCount  uint32
	Texture     Texture
}

func (m *Mesh) Indexed() bool {
	return m.IndexBuffer != BufferID(InvalidID) && m.IndexCount > 0
}

// RenderRequest is one queued draw for the current frame.
type RenderRequest struct {
	Mesh  MeshHandle
	Model math.Mat4
}
