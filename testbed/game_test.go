package testbed

import (
	"testing"

	"github.com/spaghettifunk/pica/engine"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer"
	"github.com/spaghettifunk/pica/engine/renderer/headless"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeVertices(t *testing.T) {
	vertices := CubeVertices()
	require.Len(t, vertices, 36)

	for i, v := range vertices {
		// every vertex sits on the face its normal points out of
		p, n := v.Position, v.Normal
		assert.InDelta(t, 0.5, p.X*n.X+p.Y*n.Y+p.Z*n.Z, 1e-6, "vertex %d", i)
		assert.InDelta(t, 1, v.Normal.Length(), 1e-6)
		for _, c := range []float32{v.Position.X, v.Position.Y, v.Position.Z} {
			assert.LessOrEqual(t, c, float32(0.5))
			assert.GreaterOrEqual(t, c, float32(-0.5))
		}
	}
}

func TestTestGameFrames(t *testing.T) {
	backend := headless.New(400, 240)
	r, err := renderer.New(backend, renderer.Config{Width: 400, Height: 240})
	require.NoError(t, err)
	defer r.Shutdown()

	g := NewTestGame(engine.DefaultApplicationConfig())
	require.NoError(t, g.FnInitialize(r))
	require.NoError(t, g.FnOnMeshLoaded("two.mesh", []metadata.MeshHandle{g.state().cube, g.state().cube}))

	for i := 0; i < 2; i++ {
		require.NoError(t, g.FnUpdate(1.0/60))
		require.NoError(t, g.FnRender(r, 1.0/60))
		require.NoError(t, r.RenderFrame())
	}

	// cube plus two meshes in two slots, per frame
	draws := backend.Draws()
	require.Len(t, draws, 2*5)
	assert.Equal(t, uint32(36), draws[0].Count)

	s := g.state()
	assert.InDelta(t, 2*math.K_PI/180, s.angleX, 1e-6)
	assert.InDelta(t, 2*math.K_PI/360, s.angleY, 1e-6)

	// left and right copies differ only in placement
	left := draws[1].ModelView.Column(3)
	right := draws[3].ModelView.Column(3)
	assert.InDelta(t, -1.5, left.X, 1e-6)
	assert.InDelta(t, 1.5, right.X, 1e-6)
	assert.InDelta(t, -3, right.Z, 1e-6)
}

func TestTestGameCameraKeys(t *testing.T) {
	g := NewTestGame(engine.DefaultApplicationConfig())
	g.Input = core.NewInput(core.NewEventSystem())

	g.Input.ProcessKey(core.KEY_W, true)
	require.NoError(t, g.FnUpdate(1))
	assert.True(t, g.state().camera.GetPosition().Compare(math.NewVec3(0, 0, -cameraSpeed), 1e-5))

	// R resets once released
	g.Input.ProcessKey(core.KEY_W, false)
	g.Input.ProcessKey(core.KEY_R, true)
	g.Input.Update(1)
	g.Input.ProcessKey(core.KEY_R, false)
	require.NoError(t, g.FnUpdate(1))
	assert.Equal(t, math.NewVec3Zero(), g.state().camera.GetPosition())
}
