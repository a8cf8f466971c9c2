package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer"
	"github.com/spaghettifunk/pica/engine/renderer/headless"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() []metadata.Vertex {
	n := math.NewVec3(0, 0, 1)
	return []metadata.Vertex{
		metadata.NewVertex(math.NewVec3(-1, -1, 0), math.NewVec2(0, 0), n),
		metadata.NewVertex(math.NewVec3(1, -1, 0), math.NewVec2(1, 0), n),
		metadata.NewVertex(math.NewVec3(0, 1, 0), math.NewVec2(0.5, 1), n),
	}
}

type testState struct {
	handles  []metadata.MeshHandle
	loaded   map[string]int
	updates  int
	resizes  [][2]uint32
	failAt   int
	shutdown bool
}

func newTestGame(t *testing.T, assetsDir string, frames uint64) (*Game, *testState) {
	t.Helper()
	config := DefaultApplicationConfig()
	config.Name = "engine-test"
	config.AssetsDir = assetsDir
	config.Headless = true
	config.FrameLimit = frames

	state := &testState{loaded: make(map[string]int)}
	g := &Game{
		ApplicationConfig: config,
		State:             state,
		FnInitialize: func(r *renderer.Renderer) error {
			h, err := r.RegisterMesh(triangle(), loaders.WhiteTexture(), metadata.DefaultMaterial())
			if err != nil {
				return err
			}
			state.handles = append(state.handles, h)
			return nil
		},
		FnUpdate: func(deltaTime float64) error {
			state.updates++
			if state.failAt > 0 && state.updates == state.failAt {
				return errors.New("boom")
			}
			return nil
		},
		FnRender: func(r *renderer.Renderer, deltaTime float64) error {
			for _, h := range state.handles {
				r.Enqueue(h, math.NewMat4Identity())
			}
			return nil
		},
		FnOnResize: func(width, height uint32) error {
			state.resizes = append(state.resizes, [2]uint32{width, height})
			return nil
		},
		FnShutdown: func() error {
			state.shutdown = true
			return nil
		},
		FnOnMeshLoaded: func(path string, handles []metadata.MeshHandle) error {
			state.loaded[filepath.Base(path)] = len(handles)
			state.handles = append(state.handles, handles...)
			return nil
		},
	}
	return g, state
}

func writeMeshFile(t *testing.T, path string, meshes []loaders.MeshData) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, loaders.EncodeMeshes(f, meshes))
}

func TestEngineHeadlessRun(t *testing.T) {
	dir := t.TempDir()
	writeMeshFile(t, filepath.Join(dir, "pair.mesh"), []loaders.MeshData{
		{
			Material: metadata.NewMaterialFromDiffuse(math.NewVec4(1, 0, 0, 1)),
			Vertices: triangle(),
			Indices:  []uint16{0, 1, 2},
			Texture:  loaders.WhiteTexture(),
		},
		{
			Material: metadata.DefaultMaterial(),
			Vertices: triangle(),
		},
	})
	// not a MESH container
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mesh"), []byte("nope"), 0o644))

	g, state := newTestGame(t, dir, 3)
	backend := headless.New(g.ApplicationConfig.StartWidth, g.ApplicationConfig.StartHeight)
	e, err := New(g, WithBackend(backend))
	require.NoError(t, err)

	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Equal(t, metadata.RendererBackendTypeHeadless, e.BackendType())
	assert.Equal(t, map[string]int{"pair.mesh": 2}, state.loaded)
	assert.Equal(t, 3, e.Renderer().MeshCount())
	require.Len(t, state.resizes, 1)

	require.NoError(t, e.Run())
	assert.Equal(t, 3, state.updates)
	assert.Equal(t, uint64(3), backend.Frames())

	draws := backend.Draws()
	require.Len(t, draws, 9)
	// submission order: the triangle from Initialize, then the file's meshes
	assert.False(t, draws[0].Indexed)
	assert.True(t, draws[1].Indexed)
	assert.Equal(t, uint32(3), draws[1].Count)
	assert.Equal(t, math.NewVec4(1, 0, 0, 1), draws[1].Material.Diffuse)
	assert.False(t, draws[2].Indexed)

	require.NoError(t, e.Shutdown())
	assert.True(t, state.shutdown)
	assert.Equal(t, EngineStageShutdown, e.Stage())
	buffers, textures, programs := backend.LiveResources()
	assert.Zero(t, buffers)
	assert.Zero(t, textures)
	assert.Zero(t, programs)

	require.NoError(t, e.Shutdown())
}

func TestEngineMeshRegisteredOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.mesh")
	writeMeshFile(t, path, []loaders.MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle()}})

	g, state := newTestGame(t, dir, 1)
	e, err := New(g, WithBackend(headless.New(400, 240)))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	ctx := core.EventContext{}
	ctx.Data.C = path
	e.events.Fire(core.EVENT_CODE_ASSET_MESH_CHANGED, nil, ctx)
	assert.Equal(t, 2, e.Renderer().MeshCount())
	assert.Equal(t, 1, state.loaded["one.mesh"])
}

func TestEngineRetriesMeshFileWithNoRegisteredMesh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.mesh")
	// decodes fine, but the embedded texture is not an image
	writeMeshFile(t, path, []loaders.MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle(), Texture: []byte("nope")}})

	g, state := newTestGame(t, dir, 1)
	e, err := New(g, WithBackend(headless.New(400, 240)))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	assert.Equal(t, 1, e.Renderer().MeshCount())
	assert.NotContains(t, state.loaded, "late.mesh")

	writeMeshFile(t, path, []loaders.MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle(), Texture: loaders.WhiteTexture()}})
	ctx := core.EventContext{}
	ctx.Data.C = path
	e.events.Fire(core.EVENT_CODE_ASSET_MESH_CHANGED, nil, ctx)

	assert.Equal(t, 2, e.Renderer().MeshCount())
	assert.Equal(t, 1, state.loaded["late.mesh"])
}

func TestEngineFatalError(t *testing.T) {
	g, state := newTestGame(t, t.TempDir(), 10)
	state.failAt = 2

	var reported []string
	backend := headless.New(400, 240)
	e, err := New(g,
		WithBackend(backend),
		WithFatalReporter(core.FatalReporterFunc(func(msg string) {
			reported = append(reported, msg)
		})))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	err = e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.Len(t, reported, 1)
	assert.Equal(t, uint64(1), backend.Frames())
}

func TestEngineRenderFailureIsFatal(t *testing.T) {
	g, state := newTestGame(t, t.TempDir(), 5)
	g.FnRender = func(r *renderer.Renderer, deltaTime float64) error {
		r.Enqueue(state.handles[0], math.NewMat4Identity())
		r.Enqueue(metadata.MeshHandle(42), math.NewMat4Identity())
		return nil
	}

	var reported int
	backend := headless.New(400, 240)
	e, err := New(g, WithBackend(backend), WithFatalReporter(core.FatalReporterFunc(func(string) { reported++ })))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	err = e.Run()
	assert.ErrorIs(t, err, core.ErrInvalidHandle)
	assert.Equal(t, 1, reported)
	// the valid request was still drawn
	assert.Len(t, backend.Draws(), 1)
}

func TestEngineResizeAndQuit(t *testing.T) {
	g, state := newTestGame(t, t.TempDir(), 0)
	g.ApplicationConfig.FrameLimit = 0
	backend := headless.New(400, 240)
	e, err := New(g, WithBackend(backend))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	before := e.Renderer().Projection()

	ctx := core.EventContext{}
	ctx.Data.U32[0] = 800
	ctx.Data.U32[1] = 200
	assert.True(t, e.events.Fire(core.EVENT_CODE_RESIZED, nil, ctx))
	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(200), h)
	assert.Equal(t, [2]uint32{800, 200}, state.resizes[len(state.resizes)-1])
	assert.NotEqual(t, before, e.Renderer().Projection())
	assert.Len(t, backend.CallsOf(headless.CallResized), 1)

	// minimized: suspended, nothing forwarded
	ctx.Data.U32[0] = 0
	ctx.Data.U32[1] = 0
	e.events.Fire(core.EVENT_CODE_RESIZED, nil, ctx)
	assert.True(t, e.isSuspended)
	assert.Len(t, backend.CallsOf(headless.CallResized), 1)

	ctx.Data.U32[0] = 640
	ctx.Data.U32[1] = 480
	e.events.Fire(core.EVENT_CODE_RESIZED, nil, ctx)
	assert.False(t, e.isSuspended)

	// a quit fired during update ends the loop after that frame
	g.FnUpdate = func(float64) error {
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
		return nil
	}
	require.NoError(t, e.Run())
	assert.Equal(t, uint64(1), backend.Frames())
}

func TestNewRejectsIncompleteGame(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	g, _ := newTestGame(t, t.TempDir(), 1)
	g.FnRender = nil
	_, err = New(g)
	assert.Error(t, err)
}
