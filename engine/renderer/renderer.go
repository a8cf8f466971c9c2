package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/pica/engine/containers"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// Config holds the values fixed at renderer creation.
type Config struct {
	// Width and height of the render target, used for the aspect ratio.
	Width  uint32
	Height uint32
	// Vertical field of view in degrees. Zero means metadata.DefaultFieldOfView.
	FieldOfView float32
	NearClip    float32
	FarClip     float32
	// Precompiled vertex and fragment stages.
	Shaders []metadata.ShaderSource
}

type uniformLocations struct {
	projection   metadata.UniformLocation
	modelView    metadata.UniformLocation
	lightVec     metadata.UniformLocation
	lightHalfVec metadata.UniformLocation
	lightClr     metadata.UniformLocation
	material     metadata.UniformLocation
}

// Renderer owns the mesh registry and the frame request queue and turns
// queued requests into backend draw calls. It is not safe for concurrent use.
type Renderer struct {
	backend    Backend
	config     Config
	projection math.Mat4
	program    metadata.ProgramID
	uniforms   uniformLocations
	layout     metadata.VertexLayout

	meshes   *containers.DArray[metadata.Mesh]
	requests *containers.DArray[metadata.RenderRequest]

	frameNumber uint64
	isShutdown  bool
}

// New loads the shader program, caches its uniform locations and configures
// the vertex layout and texture combiner.
func New(backend Backend, config Config) (*Renderer, error) {
	if config.FieldOfView == 0 {
		config.FieldOfView = metadata.DefaultFieldOfView
	}
	if config.NearClip == 0 {
		config.NearClip = metadata.DefaultNearClip
	}
	if config.FarClip == 0 {
		config.FarClip = metadata.DefaultFarClip
	}
	if config.Width == 0 || config.Height == 0 {
		err := fmt.Errorf("invalid render target size %dx%d", config.Width, config.Height)
		core.LogError(err.Error())
		return nil, err
	}

	r := &Renderer{
		backend:  backend,
		config:   config,
		layout:   metadata.DefaultVertexLayout(),
		meshes:   containers.NewDArray[metadata.Mesh](),
		requests: containers.NewDArray[metadata.RenderRequest](),
	}
	r.projection = r.buildProjection(config.Width, config.Height)

	program, err := backend.LoadProgram(config.Shaders)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrProgramLoad, err)
		core.LogError(err.Error())
		return nil, err
	}
	r.program = program

	if err := r.setupProgram(); err != nil {
		backend.DestroyProgram(program)
		return nil, err
	}

	core.LogInfo("renderer initialized (%dx%d, fov %.0f)", config.Width, config.Height, config.FieldOfView)
	return r, nil
}

func (r *Renderer) setupProgram() error {
	locations := make(map[string]metadata.UniformLocation, len(metadata.UniformNames))
	for _, name := range metadata.UniformNames {
		loc, err := r.backend.UniformLocation(r.program, name)
		if err == nil && loc == metadata.InvalidUniformLocation {
			err = core.ErrUniformNotFound
		}
		if err != nil {
			err = fmt.Errorf("uniform `%s`: %w", name, err)
			core.LogError(err.Error())
			return err
		}
		locations[name] = loc
	}
	r.uniforms = uniformLocations{
		projection:   locations[metadata.UniformProjection],
		modelView:    locations[metadata.UniformModelView],
		lightVec:     locations[metadata.UniformLightVec],
		lightHalfVec: locations[metadata.UniformLightHalfVec],
		lightClr:     locations[metadata.UniformLightColor],
		material:     locations[metadata.UniformMaterial],
	}

	if err := r.backend.SetAttributeLayout(r.program, r.layout); err != nil {
		core.LogError("failed to set vertex attribute layout: %s", err)
		return err
	}
	if err := r.backend.SetTextureCombiner(r.program, metadata.ModulateTextureCombiner()); err != nil {
		core.LogError("failed to set texture combiner: %s", err)
		return err
	}
	return nil
}

func (r *Renderer) buildProjection(width, height uint32) math.Mat4 {
	aspect := float32(width) / float32(height)
	return math.NewMat4Perspective(math.DegToRad(r.config.FieldOfView), aspect, r.config.NearClip, r.config.FarClip)
}

// RenderFrame draws every queued request in submission order and empties
// the queue. Requests with unknown handles are skipped; their errors are
// joined into the returned error after the rest of the frame is submitted.
func (r *Renderer) RenderFrame() error {
	if r.isShutdown {
		r.requests.Clear()
		return core.ErrRendererShutdown
	}
	defer r.requests.Clear()

	if err := r.backend.BeginFrame(); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			core.LogDebug("skipping frame %d: %s", r.frameNumber, err)
			return nil
		}
		core.LogError("failed to begin frame: %s", err)
		return err
	}

	if err := r.backend.BindProgram(r.program); err != nil {
		core.LogError("failed to bind program: %s", err)
		return errors.Join(err, r.backend.EndFrame())
	}

	var errs []error
	r.requests.Each(func(i int, request metadata.RenderRequest) {
		mesh := r.meshes.Ptr(int(request.Mesh))
		if mesh == nil {
			err := fmt.Errorf("request %d: %w: %d (registered meshes: %d)", i, core.ErrInvalidHandle, request.Mesh, r.meshes.Len())
			core.LogError(err.Error())
			errs = append(errs, err)
			return
		}
		if err := r.draw(mesh, request.Model); err != nil {
			core.LogError("request %d: draw failed: %s", i, err)
			errs = append(errs, err)
		}
	})

	if err := r.backend.EndFrame(); err != nil {
		core.LogError("failed to end frame: %s", err)
		errs = append(errs, err)
	}
	r.frameNumber++
	return errors.Join(errs...)
}

func (r *Renderer) draw(mesh *metadata.Mesh, model math.Mat4) error {
	b := r.backend
	b.SetUniformMat4(r.uniforms.projection, r.projection)
	b.SetUniformMat4(r.uniforms.modelView, model)
	for i, v := range mesh.Material.Vectors() {
		b.SetUniformVec4(r.uniforms.material+metadata.UniformLocation(i), v)
	}
	b.SetUniformVec4(r.uniforms.lightVec, metadata.LightDirection)
	b.SetUniformVec4(r.uniforms.lightHalfVec, metadata.LightHalfVector)
	b.SetUniformVec4(r.uniforms.lightClr, metadata.LightColor)

	b.BindTexture(0, mesh.Texture.ID)
	b.BindVertexBuffer(mesh.VertexBuffer, r.layout)
	if mesh.Indexed() {
		b.BindIndexBuffer(mesh.IndexBuffer)
		return b.DrawElements(mesh.IndexCount)
	}
	return b.DrawArrays(0, mesh.VertexCount)
}

// Resized forwards the new framebuffer size to the backend and rebuilds the
// projection for the new aspect ratio. Zero sizes (minimized windows) are ignored.
func (r *Renderer) Resized(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	r.config.Width = width
	r.config.Height = height
	r.projection = r.buildProjection(width, height)
	return r.backend.Resized(width, height)
}

// Shutdown releases every mesh resource and the shader program. Calling it
// more than once is a no-op. The backend itself is left running.
func (r *Renderer) Shutdown() error {
	if r.isShutdown {
		return nil
	}
	r.isShutdown = true

	for i := 0; i < r.meshes.Len(); i++ {
		r.releaseMesh(r.meshes.Ptr(i))
	}
	r.meshes.Clear()
	r.requests.Clear()
	r.backend.DestroyProgram(r.program)

	core.LogInfo("renderer shut down after %d frames", r.frameNumber)
	return nil
}

func (r *Renderer) Projection() math.Mat4 {
	return r.projection
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}
