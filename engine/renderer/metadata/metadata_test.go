package metadata

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/spaghettifunk/pica/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestDefaultVertexLayout(t *testing.T) {
	l := DefaultVertexLayout()
	assert.Equal(t, VertexStride, l.Stride)
	assert.Len(t, l.Attributes, 3)
	assert.Equal(t, uint64(0x210), l.Permutation())

	var end uint32
	for _, a := range l.Attributes {
		assert.Equal(t, end, a.Offset)
		end = a.Offset + a.Format.Size()
	}
	assert.Equal(t, VertexStride, end)
}

func TestVertexBytes(t *testing.T) {
	v := NewVertex(math.NewVec3(1, 2, 3), math.NewVec2(4, 5), math.NewVec3(6, 7, 8))
	b := VertexBytes([]Vertex{v, v})
	assert.Len(t, b, 64)
	for i := 0; i < 8; i++ {
		f := gomath.Float32frombits(binary.LittleEndian.Uint32(b[32+i*4:]))
		assert.Equal(t, float32(i+1), f)
	}

	assert.Equal(t, []byte{1, 0, 0x34, 0x12}, IndexBytes([]uint16{1, 0x1234}))
}

func TestDefaultMaterial(t *testing.T) {
	m := DefaultMaterial()
	v := m.Vectors()
	assert.Equal(t, math.NewVec4(0.2, 0.2, 0.2, 0), v[0])
	assert.Equal(t, math.NewVec4(0.4, 0.4, 0.4, 0), v[1])
	assert.Equal(t, math.NewVec4(0.8, 0.8, 0.8, 0), v[2])
	assert.Equal(t, math.NewVec4(0, 0, 0, 1), v[3])

	d := NewMaterialFromDiffuse(math.NewVec4(1, 0, 0, 1))
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), d.Diffuse)
	assert.Equal(t, m.Ambient, d.Ambient)
}

func TestMeshIndexed(t *testing.T) {
	m := &Mesh{VertexBuffer: 1, VertexCount: 3}
	assert.False(t, m.Indexed())
	m.IndexBuffer = 2
	m.IndexCount = 3
	assert.True(t, m.Indexed())
}

func TestColorFromRGBA8(t *testing.T) {
	c := ColorFromRGBA8(0x68B0D8FF)
	assert.InDelta(t, 0x68/255.0, c.X, 1e-6)
	assert.InDelta(t, 0xB0/255.0, c.Y, 1e-6)
	assert.InDelta(t, 0xD8/255.0, c.Z, 1e-6)
	assert.Equal(t, float32(1), c.W)
}

func TestGetAligned(t *testing.T) {
	assert.Equal(t, uint64(256), GetAligned(240, 256))
	assert.Equal(t, uint64(512), GetAligned(257, 256))
	assert.Equal(t, uint64(0), GetAligned(0, 64))
	assert.Equal(t, uint64(7), GetAligned(7, 0))
}
