package renderer

import (
	"fmt"

	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// RegisterMesh copies vertices into a backend vertex buffer, imports the
// texture container and stores the result. The returned handle is the
// mesh's insertion index. On error nothing is registered.
func (r *Renderer) RegisterMesh(vertices []metadata.Vertex, texture []byte, material metadata.Material) (metadata.MeshHandle, error) {
	return r.registerMesh(vertices, nil, texture, material)
}

// RegisterIndexedMesh is RegisterMesh for geometry drawn through a 16-bit index buffer.
func (r *Renderer) RegisterIndexedMesh(vertices []metadata.Vertex, indices []uint16, texture []byte, material metadata.Material) (metadata.MeshHandle, error) {
	if len(indices) == 0 {
		err := fmt.Errorf("failed to register indexed mesh: %w", core.ErrEmptyIndices)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}
	return r.registerMesh(vertices, indices, texture, material)
}

func (r *Renderer) registerMesh(vertices []metadata.Vertex, indices []uint16, texture []byte, material metadata.Material) (metadata.MeshHandle, error) {
	if r.isShutdown {
		return metadata.InvalidMeshHandle, core.ErrRendererShutdown
	}
	if len(vertices) == 0 {
		err := fmt.Errorf("failed to register mesh: %w", core.ErrEmptyVertices)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}
	if len(texture) == 0 {
		err := fmt.Errorf("failed to register mesh: %w", core.ErrEmptyTexture)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			err := fmt.Errorf("failed to register mesh: index %d is %d, vertex count %d: %w", i, idx, len(vertices), core.ErrIndexOutOfRange)
			core.LogError(err.Error())
			return metadata.InvalidMeshHandle, err
		}
	}

	mesh := metadata.Mesh{
		Material:    material,
		VertexCount: uint32(len(vertices)),
		IndexBuffer: metadata.BufferID(metadata.InvalidID),
	}

	vbo, err := r.backend.AllocVertexBuffer(vertices)
	if err != nil {
		err = fmt.Errorf("failed to allocate vertex buffer (%d vertices): %w: %w", len(vertices), core.ErrBackendAlloc, err)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}
	mesh.VertexBuffer = vbo

	if len(indices) > 0 {
		ibo, err := r.backend.AllocIndexBuffer(indices)
		if err != nil {
			r.backend.FreeBuffer(vbo)
			err = fmt.Errorf("failed to allocate index buffer (%d indices): %w: %w", len(indices), core.ErrBackendAlloc, err)
			core.LogError(err.Error())
			return metadata.InvalidMeshHandle, err
		}
		mesh.IndexBuffer = ibo
		mesh.IndexCount = uint32(len(indices))
	}

	tex, err := r.backend.ImportTexture(texture)
	if err != nil {
		r.releaseMesh(&mesh)
		err = fmt.Errorf("%w: %w", core.ErrTextureImport, err)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}
	mesh.Texture = tex

	if err := r.backend.SetTextureFilter(tex.ID, metadata.TextureFilterModeLinear, metadata.TextureFilterModeNearest); err != nil {
		r.releaseMesh(&mesh)
		err = fmt.Errorf("failed to set texture filter: %w: %w", core.ErrTextureImport, err)
		core.LogError(err.Error())
		return metadata.InvalidMeshHandle, err
	}

	handle := metadata.MeshHandle(r.meshes.Push(mesh))
	core.LogDebug("registered mesh %d: %d vertices, %d indices, texture %dx%d", handle, mesh.VertexCount, mesh.IndexCount, tex.Width, tex.Height)
	return handle, nil
}

// Mesh returns a copy of the registered mesh behind handle.
func (r *Renderer) Mesh(handle metadata.MeshHandle) (metadata.Mesh, bool) {
	return r.meshes.At(int(handle))
}

func (r *Renderer) MeshCount() int {
	return r.meshes.Len()
}

func (r *Renderer) releaseMesh(mesh *metadata.Mesh) {
	if mesh.Texture.ID != metadata.TextureID(metadata.InvalidID) {
		r.backend.FreeTexture(mesh.Texture.ID)
		mesh.Texture.ID = metadata.TextureID(metadata.InvalidID)
	}
	if mesh.IndexBuffer != metadata.BufferID(metadata.InvalidID) {
		r.backend.FreeBuffer(mesh.IndexBuffer)
		mesh.IndexBuffer = metadata.BufferID(metadata.InvalidID)
	}
	if mesh.VertexBuffer != metadata.BufferID(metadata.InvalidID) {
		r.backend.FreeBuffer(mesh.VertexBuffer)
		mesh.VertexBuffer = metadata.BufferID(metadata.InvalidID)
	}
}
