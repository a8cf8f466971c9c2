package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// MeshMagic opens every MESH container.
var MeshMagic = [4]byte{'M', 'E', 'S', 'H'}

const (
	vertexFloats = 8
	indexSize    = 2
)

// MeshData is one entry of a MESH container. Texture is nil for untextured meshes.
type MeshData struct {
	Material metadata.Material
	Vertices []metadata.Vertex
	Indices  []uint16
	Texture  []byte
}

// DecodeMeshes parses a MESH container:
//
//	"MESH" u32 count
//	count × { f32×4 diffuse, u32 nverts, nverts × f32×8, u32 nidx, nidx × u16, u32 texsize, texsize bytes }
//
// All values are little-endian. Material fields other than diffuse take the default material values.
func DecodeMeshes(data []byte) ([]MeshData, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: header", core.ErrTruncatedMesh)
	}
	if magic != MeshMagic {
		return nil, fmt.Errorf("%w: magic %q", core.ErrBadMeshMagic, magic[:])
	}

	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mesh count", err)
	}

	meshes := make([]MeshData, 0, min(int(count), 64))
	for i := uint32(0); i < count; i++ {
		mesh, err := decodeMesh(r)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func decodeMesh(r *bytes.Reader) (MeshData, error) {
	var diffuse [4]float32
	if err := binary.Read(r, binary.LittleEndian, &diffuse); err != nil {
		return MeshData{}, truncated("diffuse", err)
	}
	mesh := MeshData{
		Material: metadata.NewMaterialFromDiffuse(math.NewVec4(diffuse[0], diffuse[1], diffuse[2], diffuse[3])),
	}

	nverts, err := readU32(r)
	if err != nil {
		return MeshData{}, fmt.Errorf("%w: vertex count", err)
	}
	if nverts == 0 {
		return MeshData{}, core.ErrEmptyVertices
	}
	if uint64(nverts)*uint64(metadata.VertexStride) > uint64(r.Len()) {
		return MeshData{}, fmt.Errorf("%w: %d vertices", core.ErrTruncatedMesh, nverts)
	}
	raw := make([]float32, int(nverts)*vertexFloats)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return MeshData{}, truncated("vertices", err)
	}
	mesh.Vertices = make([]metadata.Vertex, nverts)
	for i := range mesh.Vertices {
		f := raw[i*vertexFloats : (i+1)*vertexFloats]
		mesh.Vertices[i] = metadata.NewVertex(
			math.NewVec3(f[0], f[1], f[2]),
			math.NewVec2(f[3], f[4]),
			math.NewVec3(f[5], f[6], f[7]),
		)
	}

	nidx, err := readU32(r)
	if err != nil {
		return MeshData{}, fmt.Errorf("%w: index count", err)
	}
	if uint64(nidx)*indexSize > uint64(r.Len()) {
		return MeshData{}, fmt.Errorf("%w: %d indices", core.ErrTruncatedMesh, nidx)
	}
	if nidx > 0 {
		mesh.Indices = make([]uint16, nidx)
		if err := binary.Read(r, binary.LittleEndian, mesh.Indices); err != nil {
			return MeshData{}, truncated("indices", err)
		}
		for i, idx := range mesh.Indices {
			if uint32(idx) >= nverts {
				return MeshData{}, fmt.Errorf("index %d is %d with %d vertices: %w", i, idx, nverts, core.ErrIndexOutOfRange)
			}
		}
	}

	texSize, err := readU32(r)
	if err != nil {
		return MeshData{}, fmt.Errorf("%w: texture size", err)
	}
	if uint64(texSize) > uint64(r.Len()) {
		return MeshData{}, fmt.Errorf("%w: texture of %d bytes", core.ErrTruncatedMesh, texSize)
	}
	if texSize > 0 {
		mesh.Texture = make([]byte, texSize)
		if _, err := io.ReadFull(r, mesh.Texture); err != nil {
			return MeshData{}, truncated("texture", err)
		}
	}
	return mesh, nil
}

// EncodeMeshes writes meshes as a MESH container. Only the diffuse term of each material is stored.
func EncodeMeshes(w io.Writer, meshes []MeshData) error {
	if _, err := w.Write(MeshMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(meshes))); err != nil {
		return err
	}
	for i, mesh := range meshes {
		if err := encodeMesh(w, mesh); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return nil
}

func encodeMesh(w io.Writer, mesh MeshData) error {
	d := mesh.Material.Diffuse
	if err := binary.Write(w, binary.LittleEndian, [4]float32{d.X, d.Y, d.Z, d.W}); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(mesh.Vertices))); err != nil {
		return err
	}
	if _, err := w.Write(metadata.VertexBytes(mesh.Vertices)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(mesh.Indices))); err != nil {
		return err
	}
	if _, err := w.Write(metadata.IndexBytes(mesh.Indices)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(mesh.Texture))); err != nil {
		return err
	}
	_, err := w.Write(mesh.Texture)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, truncated("u32", err)
	}
	return v, nil
}

func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", core.ErrTruncatedMesh, what)
	}
	return err
}
