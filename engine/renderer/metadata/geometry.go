package metadata

import (
	"encoding/binary"
	gomath "math"

	"github.com/spaghettifunk/pica/engine/math"
)

/** @brief The size in bytes of one Vertex as laid out in a vertex buffer. */
const VertexStride uint32 = 32

/**
 * @brief Represents a single vertex in 3D space: position, texture
 * coordinate and normal, tightly packed as 8 floats.
 */
type Vertex struct {
	/** @brief The position of the vertex */
	Position math.Vec3
	/** @brief The texture coordinate of the vertex. */
	Texcoord math.Vec2
	/** @brief The normal of the vertex. */
	Normal math.Vec3
}

func NewVertex(position math.Vec3, texcoord math.Vec2, normal math.Vec3) Vertex {
	return Vertex{Position: position, Texcoord: texcoord, Normal: normal}
}

/** @brief Available vertex attribute formats. */
type VertexAttributeFormat uint8

const (
	VertexAttributeFloat2 VertexAttributeFormat = iota
	VertexAttributeFloat3
	VertexAttributeFloat4
)

// Size returns the attribute size in bytes.
func (f VertexAttributeFormat) Size() uint32 {
	switch f {
	case VertexAttributeFloat2:
		return 8
	case VertexAttributeFloat3:
		return 12
	default:
		return 16
	}
}

/**
 * @brief Describes one input attribute of the vertex stage.
 */
type VertexAttribute struct {
	/** @brief The shader input register. */
	Location uint32
	/** @brief The attribute format. */
	Format VertexAttributeFormat
	/** @brief The byte offset of the attribute inside a vertex. */
	Offset uint32
}

/**
 * @brief Describes how a vertex buffer maps onto vertex stage inputs.
 */
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// DefaultVertexLayout is the 3-attribute layout of Vertex:
// v0 position float3, v1 texcoord float2, v2 normal float3.
func DefaultVertexLayout() VertexLayout {
	return VertexLayout{
		Stride: VertexStride,
		Attributes: []VertexAttribute{
			{Location: 0, Format: VertexAttributeFloat3, Offset: 0},
			{Location: 1, Format: VertexAttributeFloat2, Offset: 12},
			{Location: 2, Format: VertexAttributeFloat3, Offset: 20},
		},
	}
}

// Permutation packs the attribute locations one nibble each, lowest first,
// so the default layout yields 0x210.
func (l VertexLayout) Permutation() uint64 {
	var p uint64
	for i, a := range l.Attributes {
		p |= uint64(a.Location&0xF) << (4 * uint(i))
	}
	return p
}

// VertexBytes serializes vertices into a little-endian byte slice with VertexStride per vertex.
func VertexBytes(vertices []Vertex) []byte {
	out := make([]byte, len(vertices)*int(VertexStride))
	for i, v := range vertices {
		f := [8]float32{
			v.Position.X, v.Position.Y, v.Position.Z,
			v.Texcoord.X, v.Texcoord.Y,
			v.Normal.X, v.Normal.Y, v.Normal.Z,
		}
		base := i * int(VertexStride)
		for j, x := range f {
			binary.LittleEndian.PutUint32(out[base+j*4:], gomath.Float32bits(x))
		}
	}
	return out
}

// IndexBytes serializes 16-bit indices into a little-endian byte slice.
func IndexBytes(indices []uint16) []byte {
	out := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(out[i*2:], idx)
	}
	return out
}
