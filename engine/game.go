package engine

import (
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/renderer"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}

	// Set by the engine; keyboard state for the update callback.
	Input *core.Input

	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown

	// Optional. Called once per .mesh file after its meshes are registered.
	FnOnMeshLoaded MeshLoaded
}

type Initialize func(r *renderer.Renderer) error
type Update func(deltaTime float64) error

// Render enqueues this frame's draws; the engine submits them afterwards.
type Render func(r *renderer.Renderer, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
type MeshLoaded func(path string, handles []metadata.MeshHandle) error
