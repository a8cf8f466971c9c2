package engine

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/pica/engine/assets"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/platform"
	"github.com/spaghettifunk/pica/engine/renderer"
	"github.com/spaghettifunk/pica/engine/renderer/headless"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/spaghettifunk/pica/engine/renderer/vulkan"
)

var _ renderer.Backend = (*vulkan.Backend)(nil)
var _ renderer.Backend = (*headless.Backend)(nil)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every subsystem
	EngineStageShutdown
)

// how often the frame metrics are logged
const metricsLogInterval = 120

// sleep while the window is minimized
const suspendedSleep = 16 * time.Millisecond

type Option func(e *Engine)

// WithBackend makes the engine render through backend instead of creating one.
// The engine still shuts it down.
func WithBackend(backend renderer.Backend) Option {
	return func(e *Engine) {
		e.backend = backend
	}
}

func WithFatalReporter(reporter core.FatalReporter) Option {
	return func(e *Engine) {
		e.fatal = reporter
	}
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	isRunning    atomic.Bool
	isSuspended  bool

	events       *core.EventSystem
	input        *core.Input
	platform     *platform.Platform
	backend      renderer.Backend
	backendType  metadata.RendererBackendType
	renderer     *renderer.Renderer
	assetManager *assets.AssetManager
	fatal        core.FatalReporter

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
	runErr   error

	// .mesh files already registered, by path
	loadedMeshes map[string][]metadata.MeshHandle
}

func New(g *Game, opts ...Option) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("game has no application config")
	}
	if g.FnInitialize == nil || g.FnUpdate == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide initialize, update and render callbacks")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		core.LogError("invalid application config: %s", err)
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	events := core.NewEventSystem()
	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.ApplicationConfig,
		events:       events,
		input:        core.NewInput(events),
		assetManager: am,
		fatal:        core.LogFatalReporter{},
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
		loadedMeshes: make(map[string][]metadata.MeshHandle),
	}
	for _, opt := range opts {
		opt(e)
	}
	g.Input = e.input
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	core.SetLogLevel(e.config.Level())

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_ASSET_MESH_CHANGED, e, e.onMeshChanged)

	if e.backend == nil {
		if err := e.createBackend(); err != nil {
			return err
		}
	}
	if _, ok := e.backend.(*headless.Backend); ok {
		e.backendType = metadata.RendererBackendTypeHeadless
	} else {
		e.backendType = metadata.RendererBackendTypeVulkan
	}
	core.LogInfo("rendering with the %s backend", e.backendType)

	shaders, err := e.loadShaders()
	if err != nil {
		return err
	}

	r, err := renderer.New(e.backend, renderer.Config{
		Width:       e.width,
		Height:      e.height,
		FieldOfView: e.config.FieldOfView,
		Shaders:     shaders,
	})
	if err != nil {
		return err
	}
	e.renderer = r

	if err := os.MkdirAll(e.config.AssetsDir, 0o755); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(e.config.AssetsDir, e.config.WatchAssets && !e.config.Headless); err != nil {
		return err
	}

	if err := e.gameInstance.FnInitialize(e.renderer); err != nil {
		return err
	}

	// meshes already on disk are registered before the first frame
	for _, path := range e.assetManager.List(metadata.ResourceTypeMesh) {
		e.loadMesh(path)
	}

	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) createBackend() error {
	if e.config.Headless {
		e.backend = headless.New(e.width, e.height)
		core.LogInfo("running headless for %d frames", e.config.FrameLimit)
		return nil
	}

	p, err := platform.New(e.events, e.input)
	if err != nil {
		return err
	}
	if err := p.Startup(e.config.Name, e.config.StartPosX, e.config.StartPosY, e.config.StartWidth, e.config.StartHeight); err != nil {
		return err
	}
	e.platform = p
	// high-dpi displays report a framebuffer larger than the window
	e.width, e.height = p.FramebufferSize()

	vb := vulkan.New(p, vulkan.Config{
		AppName:    e.config.Name,
		Width:      e.width,
		Height:     e.height,
		ClearColor: e.config.ClearColorVec(),
		Debug:      e.config.Debug,
	})
	if err := vb.Initialize(); err != nil {
		core.LogError("failed to initialize the vulkan backend: %s", err)
		return err
	}
	e.backend = vb
	return nil
}

func (e *Engine) loadShaders() ([]metadata.ShaderSource, error) {
	files := []struct {
		path  string
		stage metadata.ShaderStage
	}{
		{e.config.VertexShader, metadata.ShaderStageVertex},
		{e.config.FragmentShader, metadata.ShaderStageFragment},
	}

	loader := &loaders.ShaderLoader{}
	var out []metadata.ShaderSource
	for _, f := range files {
		if e.config.Headless {
			// the recording backend does not look at the code
			if _, err := os.Stat(f.path); f.path == "" || err != nil {
				continue
			}
		}
		res, err := loader.Load(f.path, metadata.ResourceTypeShader, f.stage)
		if err != nil {
			core.LogError("failed to load %s shader: %s", f.stage, err)
			return nil, err
		}
		out = append(out, res.Data.(metadata.ShaderSource))
	}
	return out, nil
}

// Run drives the frame loop until a quit event, Stop, the frame limit or a fatal error.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var frames uint64
	for e.isRunning.Load() {
		if e.platform != nil {
			e.platform.PumpMessages()
		}

		if e.isSuspended {
			time.Sleep(suspendedSleep)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		// pick up mesh files that appeared since the previous frame
		for _, path := range e.assetManager.DrainChangedMeshes() {
			ctx := core.EventContext{}
			ctx.Data.C = path
			e.events.Fire(core.EVENT_CODE_ASSET_MESH_CHANGED, e, ctx)
		}

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			e.reportFatal(fmt.Errorf("game update failed: %w", err))
			break
		}

		// Call the game's render routine.
		if err := e.gameInstance.FnRender(e.renderer, delta); err != nil {
			e.reportFatal(fmt.Errorf("game render failed: %w", err))
			break
		}

		if err := e.renderer.RenderFrame(); err != nil {
			e.reportFatal(fmt.Errorf("frame %d failed: %w", e.renderer.FrameNumber(), err))
			break
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		e.input.Update(delta)

		e.metrics.Update(time.Since(frameStart).Seconds())
		frames++
		if frames%metricsLogInterval == 0 {
			fps, ms := e.metrics.Frame()
			core.LogDebug("frame %d: %.0f fps, %.3f ms", frames, fps, ms)
		}

		if e.config.FrameLimit > 0 && frames >= e.config.FrameLimit {
			core.LogInfo("frame limit of %d reached", e.config.FrameLimit)
			e.isRunning.Store(false)
		}

		// Update last time
		e.lastTime = currentTime
	}

	e.isRunning.Store(false)
	return e.runErr
}

func (e *Engine) reportFatal(err error) {
	core.LogError(err.Error())
	e.runErr = err
	e.isRunning.Store(false)
	e.fatal.ReportFatal(err.Error())
}

// Stop asks the frame loop to return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

// Shutdown releases the game, the renderer, the backend, the asset manager
// and the window, in that order. Every step runs even if an earlier one fails.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.renderer != nil {
		errs = append(errs, e.renderer.Shutdown())
	}
	if e.backend != nil {
		errs = append(errs, e.backend.Shutdown())
	}
	errs = append(errs, e.assetManager.Shutdown())
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	e.events.Shutdown()

	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Backend() renderer.Backend {
	return e.backend
}

func (e *Engine) BackendType() metadata.RendererBackendType {
	return e.backendType
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// loadMesh decodes a .mesh file and registers every mesh in it. A file is
// registered once; a file that fails to decode is retried on its next change.
func (e *Engine) loadMesh(path string) {
	path = e.assetManager.Resolve(path)
	if _, ok := e.loadedMeshes[path]; ok {
		core.LogDebug("%s is already registered, ignoring change", path)
		return
	}

	res, err := e.assetManager.LoadAsset(path, metadata.ResourceTypeMesh, nil)
	if err != nil {
		core.LogWarn("failed to load %s: %s", path, err)
		return
	}
	defer e.assetManager.UnloadAsset(res)

	meshes, ok := res.Data.([]loaders.MeshData)
	if !ok {
		core.LogWarn("%s: unexpected resource data %T", path, res.Data)
		return
	}

	handles := make([]metadata.MeshHandle, 0, len(meshes))
	for i, m := range meshes {
		texture := m.Texture
		if len(texture) == 0 {
			texture = loaders.WhiteTexture()
		}
		var handle metadata.MeshHandle
		if len(m.Indices) > 0 {
			handle, err = e.renderer.RegisterIndexedMesh(m.Vertices, m.Indices, texture, m.Material)
		} else {
			handle, err = e.renderer.RegisterMesh(m.Vertices, texture, m.Material)
		}
		if err != nil {
			core.LogWarn("%s: mesh %d not registered: %s", path, i, err)
			continue
		}
		handles = append(handles, handle)
	}
	core.LogInfo("registered %d/%d meshes from %s", len(handles), len(meshes), path)
	if len(handles) == 0 {
		// left unrecorded so a fixed file is picked up on its next change
		return
	}
	e.loadedMeshes[path] = handles

	if e.gameInstance.FnOnMeshLoaded != nil {
		if err := e.gameInstance.FnOnMeshLoaded(path, handles); err != nil {
			core.LogError("game rejected meshes from %s: %s", path, err)
		}
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onMeshChanged(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if context.Data.C == "" {
		return false
	}
	e.loadMesh(context.Data.C)
	// other listeners may want to know as well
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("game resize failed: %s", err)
		}
	}
	if e.renderer != nil {
		if err := e.renderer.Resized(width, height); err != nil {
			core.LogError("renderer resize failed: %s", err)
		}
	}
	return true
}
