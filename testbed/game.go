package testbed

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/pica/engine"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer"
	"github.com/spaghettifunk/pica/engine/renderer/components"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// where loaded .mesh files are drawn, each one twice
var meshSlots = []math.Vec3{
	math.NewVec3(-1.5, 0, -3),
	math.NewVec3(1.5, 0, -3),
}

const meshScale float32 = 0.3

const (
	// units per second
	cameraSpeed float32 = 2
	// radians per second
	cameraTurn float32 = 1
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	cube   metadata.MeshHandle
	angleX float32
	angleY float32

	camera         *components.Camera
	cubeTransform  *math.Transform
	meshes         []metadata.MeshHandle
	meshTransforms []*math.Transform

	width  uint32
	height uint32
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	state := &gameState{
		cube:          metadata.InvalidMeshHandle,
		camera:        components.NewCamera(),
		cubeTransform: math.TransformFromPosition(math.NewVec3(0, 0, -3)),
	}
	for _, slot := range meshSlots {
		t := math.TransformFromPositionRotationScale(slot, math.NewVec3Zero(), math.NewVec3(meshScale, meshScale, meshScale))
		state.meshTransforms = append(state.meshTransforms, t)
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             state,
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	tg.FnOnMeshLoaded = tg.OnMeshLoaded

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(r *renderer.Renderer) error {
	core.LogInfo("initializing testbed...")

	texture, err := loaders.CheckerTexture(64, 8,
		color.RGBA{R: 0xF0, G: 0xA0, B: 0x40, A: 0xFF},
		color.RGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xFF})
	if err != nil {
		return err
	}

	handle, err := r.RegisterMesh(CubeVertices(), texture, metadata.DefaultMaterial())
	if err != nil {
		core.LogError("failed to register the cube: %s", err)
		return err
	}
	g.state().cube = handle
	return nil
}

func (g *TestGame) OnMeshLoaded(path string, handles []metadata.MeshHandle) error {
	s := g.state()
	s.meshes = append(s.meshes, handles...)
	core.LogInfo("testbed: drawing %d meshes from %s", len(handles), path)
	return nil
}

// Update advances the rotation by a fixed step per frame.
func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	s.angleX += math.K_PI / 180
	s.angleY += math.K_PI / 360

	s.cubeTransform.SetRotation(math.NewVec3(s.angleX, s.angleY, 0))
	s.cubeTransform.SetPosition(math.NewVec3(0, 0, -3+math32.Sin(s.angleX)*0.5))
	for _, t := range s.meshTransforms {
		t.SetRotation(math.NewVec3(0, s.angleY, 0))
	}

	if g.Input != nil {
		g.moveCamera(float32(deltaTime))
	}
	return nil
}

func (g *TestGame) moveCamera(delta float32) {
	in := g.Input
	cam := g.state().camera
	if in.IsKeyDown(core.KEY_W) {
		cam.MoveForward(cameraSpeed * delta)
	}
	if in.IsKeyDown(core.KEY_S) {
		cam.MoveBackward(cameraSpeed * delta)
	}
	if in.IsKeyDown(core.KEY_A) {
		cam.MoveLeft(cameraSpeed * delta)
	}
	if in.IsKeyDown(core.KEY_D) {
		cam.MoveRight(cameraSpeed * delta)
	}
	if in.IsKeyDown(core.KEY_LEFT) {
		cam.Yaw(cameraTurn * delta)
	}
	if in.IsKeyDown(core.KEY_RIGHT) {
		cam.Yaw(-cameraTurn * delta)
	}
	if in.IsKeyDown(core.KEY_UP) {
		cam.Pitch(cameraTurn * delta)
	}
	if in.IsKeyDown(core.KEY_DOWN) {
		cam.Pitch(-cameraTurn * delta)
	}
	if in.KeyReleased(core.KEY_R) {
		cam.Reset()
	}
}

func (g *TestGame) Render(r *renderer.Renderer, deltaTime float64) error {
	s := g.state()
	view := s.camera.GetView()
	r.Enqueue(s.cube, s.cubeTransform.GetLocal().Mul(view))
	for _, t := range s.meshTransforms {
		modelView := t.GetLocal().Mul(view)
		for _, m := range s.meshes {
			r.Enqueue(m, modelView)
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	s := g.state()
	s.width = width
	s.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed after %.2f turns", g.state().angleY/(2*math.K_PI))
	return nil
}

// CubeVertices returns an axis-aligned cube of edge 1 centred on the origin
// as 36 non-indexed vertices, two counter-clockwise triangles per face.
func CubeVertices() []metadata.Vertex {
	faces := []struct {
		normal, u, v math.Vec3
	}{
		{math.NewVec3(0, 0, 1), math.NewVec3(1, 0, 0), math.NewVec3(0, 1, 0)},
		{math.NewVec3(0, 0, -1), math.NewVec3(-1, 0, 0), math.NewVec3(0, 1, 0)},
		{math.NewVec3(1, 0, 0), math.NewVec3(0, 0, -1), math.NewVec3(0, 1, 0)},
		{math.NewVec3(-1, 0, 0), math.NewVec3(0, 0, 1), math.NewVec3(0, 1, 0)},
		{math.NewVec3(0, 1, 0), math.NewVec3(1, 0, 0), math.NewVec3(0, 0, -1)},
		{math.NewVec3(0, -1, 0), math.NewVec3(1, 0, 0), math.NewVec3(0, 0, 1)},
	}
	corners := []math.Vec2{
		math.NewVec2(0, 0), math.NewVec2(1, 0), math.NewVec2(1, 1),
		math.NewVec2(0, 0), math.NewVec2(1, 1), math.NewVec2(0, 1),
	}

	vertices := make([]metadata.Vertex, 0, len(faces)*len(corners))
	for _, f := range faces {
		centre := f.normal.MulScalar(0.5)
		for _, c := range corners {
			pos := centre.
				Add(f.u.MulScalar(c.X - 0.5)).
				Add(f.v.MulScalar(c.Y - 0.5))
			vertices = append(vertices, metadata.NewVertex(pos, c, f.normal))
		}
	}
	return vertices
}
