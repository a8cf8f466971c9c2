package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-5

func TestMat4IdentityMul(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3))
	left, right := NewMat4Identity().Mul(m), m.Mul(NewMat4Identity())
	assert.InDeltaSlice(t, m.Data[:], left.Data[:], tolerance)
	assert.InDeltaSlice(t, m.Data[:], right.Data[:], tolerance)
}

func TestMat4MulAppliesLeftOperandFirst(t *testing.T) {
	// scale by 2 then translate by (1,0,0): (1,0,0) -> (2,0,0) -> (3,0,0)
	m := NewMat4Scale(NewVec3(2, 2, 2)).Mul(NewMat4Translation(NewVec3(1, 0, 0)))
	p := NewVec3(1, 0, 0).Transform(m)
	assert.True(t, p.Compare(NewVec3(3, 0, 0), tolerance), "got %v", p)

	// translate first, then scale: (1,0,0) -> (2,0,0) -> (4,0,0)
	m = NewMat4Translation(NewVec3(1, 0, 0)).Mul(NewMat4Scale(NewVec3(2, 2, 2)))
	p = NewVec3(1, 0, 0).Transform(m)
	assert.True(t, p.Compare(NewVec3(4, 0, 0), tolerance), "got %v", p)
}

func TestMat4Perspective(t *testing.T) {
	fov := DegToRad(80)
	m := NewMat4Perspective(fov, 2.0, 0.01, 1000)
	f := 1 / math32.Tan(fov/2)

	assert.InDelta(t, f/2.0, m.Data[0], tolerance)
	assert.InDelta(t, f, m.Data[5], tolerance)
	assert.InDelta(t, -1000.01/999.99, m.Data[10], tolerance)
	assert.Equal(t, float32(-1), m.Data[11])
	assert.InDelta(t, -(2*1000*0.01)/999.99, m.Data[14], tolerance)
	assert.Zero(t, m.Data[15])
}

func TestEulerRotations(t *testing.T) {
	p := NewVec3(0, 1, 0).Transform(NewMat4EulerX(K_HALF_PI))
	assert.True(t, p.Compare(NewVec3(0, 0, 1), tolerance), "x: %v", p)

	p = NewVec3(0, 0, 1).Transform(NewMat4EulerY(K_HALF_PI))
	assert.True(t, p.Compare(NewVec3(1, 0, 0), tolerance), "y: %v", p)

	p = NewVec3(1, 0, 0).Transform(NewMat4EulerZ(K_HALF_PI))
	assert.True(t, p.Compare(NewVec3(0, 1, 0), tolerance), "z: %v", p)
}

func TestQuaternionMatchesEuler(t *testing.T) {
	s := math32.Sin(K_HALF_PI / 2)
	c := math32.Cos(K_HALF_PI / 2)
	q := Quaternion{0, s, 0, c}
	want := NewMat4EulerY(K_HALF_PI)
	got := q.ToMat4()
	assert.InDeltaSlice(t, want.Data[:], got.Data[:], tolerance)
}

func TestTransposed(t *testing.T) {
	m := NewMat4Translation(NewVec3(1, 2, 3)).Transposed()
	assert.Equal(t, float32(1), m.Data[3])
	assert.Equal(t, float32(2), m.Data[7])
	assert.Equal(t, float32(3), m.Data[11])
}

func TestVec3(t *testing.T) {
	assert.Equal(t, NewVec3(0, 0, 1), NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)))
	assert.InDelta(t, 1.0, NewVec3(3, 4, 12).Normalized().Length(), tolerance)
	assert.Equal(t, NewVec3Zero(), NewVec3Zero().Normalized())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(10, 0, 5))
	assert.Equal(t, uint32(1), Clamp(uint32(0), 1, 8))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}

func TestTransformLocal(t *testing.T) {
	tr := TransformFromPositionRotationScale(NewVec3(0, 0, -3), NewVec3Zero(), NewVec3(0.5, 0.5, 0.5))
	p := NewVec3(2, 0, 0).Transform(tr.GetLocal())
	assert.True(t, p.Compare(NewVec3(1, 0, -3), tolerance), "got %v", p)
	assert.False(t, tr.IsDirty)

	tr.SetPosition(NewVec3(1, 0, -3))
	assert.True(t, tr.IsDirty)
	p = NewVec3Zero().Transform(tr.GetLocal())
	assert.True(t, p.Compare(NewVec3(1, 0, -3), tolerance), "got %v", p)

	var nilTransform *Transform
	assert.Equal(t, NewMat4Identity(), nilTransform.GetLocal())
}

func TestGenerateFlatNormals(t *testing.T) {
	positions := []Vec3{NewVec3(0, 0, 0), NewVec3(1, 0, 0), NewVec3(0, 1, 0)}
	normals := GenerateFlatNormals(positions, []uint32{0, 1, 2})
	for _, n := range normals {
		assert.True(t, n.Compare(NewVec3(0, 0, 1), tolerance))
	}
}
