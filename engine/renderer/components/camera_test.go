package components

import (
	"testing"

	"github.com/spaghettifunk/pica/engine/math"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-5

func TestCameraDefaultViewIsIdentity(t *testing.T) {
	c := NewCamera()
	want, view := math.NewMat4Identity(), c.GetView()
	assert.InDeltaSlice(t, want.Data[:], view.Data[:], tolerance)
	assert.True(t, c.Forward().Compare(math.NewVec3(0, 0, -1), tolerance))
}

func TestCameraViewUndoesTransform(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(1, 2, 3))
	c.Yaw(math.K_HALF_PI)

	// the camera's own position lands on the origin
	assert.True(t, c.GetPosition().Transform(c.GetView()).Compare(math.NewVec3Zero(), tolerance))

	// a point straight ahead ends up on -Z in view space
	ahead := c.GetPosition().Add(c.Forward().MulScalar(5))
	assert.True(t, ahead.Transform(c.GetView()).Compare(math.NewVec3(0, 0, -5), tolerance))
}

func TestCameraMovement(t *testing.T) {
	c := NewCamera()
	c.MoveForward(2)
	assert.True(t, c.GetPosition().Compare(math.NewVec3(0, 0, -2), tolerance))
	c.MoveRight(1)
	c.MoveUp(0.5)
	assert.True(t, c.GetPosition().Compare(math.NewVec3(1, 0.5, -2), tolerance))
	c.MoveBackward(2)
	c.MoveLeft(1)
	c.MoveDown(0.5)
	assert.True(t, c.GetPosition().Compare(math.NewVec3Zero(), tolerance))
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera()
	c.Pitch(10)
	assert.InDelta(t, pitchLimit, c.GetEulerRotation().X, tolerance)
	c.Pitch(-20)
	assert.InDelta(t, -pitchLimit, c.GetEulerRotation().X, tolerance)

	c.Reset()
	assert.Equal(t, math.NewVec3Zero(), c.GetEulerRotation())
}
