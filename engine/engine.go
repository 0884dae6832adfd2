package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/ember/engine/assets"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/platform"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/systems"
)

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
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	backend       renderer.BackendType
	isRunning     bool
	isSuspended   bool
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	context       *renderer.Context
	pipeline      *renderer.Pipeline
	width         int32
	height        int32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	fixedTime     float64
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &ApplicationConfig{Config: DefaultConfig()}
	}
	cfg := g.ApplicationConfig.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := renderer.ParseBackendType(cfg.Render.Backend)
	if err != nil {
		return nil, err
	}

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		Workers:   cfg.Workers.Count,
		QueueSize: cfg.Workers.QueueSize,
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		backend:       backend,
		clock:         core.NewClock(),
		metrics:       core.NewMetrics(),
		systemManager: sm,
		isRunning:     true,
		isSuspended:   false,
		width:         cfg.Window.Width,
		height:        cfg.Window.Height,
	}
	if backend == renderer.OpenGL {
		e.platform = platform.New()
	}
	if cfg.Assets.Watch {
		am, err := assets.NewAssetManager()
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		e.assetManager = am
	}
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig.Config

	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	if e.platform != nil {
		w := cfg.Window
		if err := e.platform.Startup(w.Name, w.X, w.Y, w.Width, w.Height, w.VSync); err != nil {
			return err
		}
		// the drawable can be larger than the window on high-DPI screens
		e.width, e.height = e.platform.FramebufferSize()
	}

	device, err := renderer.NewBackend(e.backend, renderer.BackendOptions{
		Width:       e.width,
		Height:      e.height,
		DebugLabels: cfg.Render.DebugLabels,
	})
	if err != nil {
		return err
	}
	e.context = renderer.NewContext(device, e.width, e.height)
	e.context.SetClearColor(cfg.ClearColor())
	e.pipeline = renderer.NewPipeline(e.context, cfg.Render.StaticFramebufferCount)
	e.context.SetPipeline(e.pipeline)

	if e.assetManager != nil {
		if _, err := os.Stat(cfg.Assets.Dir); err != nil {
			core.LogWarn("asset directory %s unavailable, hot reload disabled: %s", cfg.Assets.Dir, err)
			_ = e.assetManager.Shutdown()
			e.assetManager = nil
		} else if err := e.assetManager.Initialize(cfg.Assets.Dir); err != nil {
			return err
		}
	}

	g := e.gameInstance
	g.Context = e.context
	g.Pipeline = e.pipeline
	g.Assets = e.assetManager
	g.SystemManager = e.systemManager

	if g.FnInitialize != nil {
		if err := g.FnInitialize(); err != nil {
			return err
		}
	}
	if g.FnOnResize != nil {
		if err := g.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}
		if e.isSuspended {
			if e.platform != nil {
				e.platform.Sleep(10)
			}
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		if err := e.Frame(delta); err != nil {
			core.LogError("%s, shutting down.", err)
			e.isRunning = false
			return err
		}
		e.clock.Update()
		e.metrics.Update(e.clock.Elapsed() - currentTime)
		e.lastTime = currentTime
	}
	return nil
}

// Frame advances the game by delta seconds and renders one frame. Render
// stage failures are logged and do not stop the frame; game hook failures
// are returned.
func (e *Engine) Frame(delta float64) error {
	g := e.gameInstance

	if e.assetManager != nil {
		e.assetManager.Poll(e.context)
	}

	if g.FnFixedUpdate != nil {
		e.fixedTime += delta
		for e.fixedTime >= FixedTimeStep {
			if err := g.FnFixedUpdate(FixedTimeStep); err != nil {
				return fmt.Errorf("game fixed update failed: %w", err)
			}
			e.fixedTime -= FixedTimeStep
		}
	}
	if g.FnUpdate != nil {
		if err := g.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update failed: %w", err)
		}
	}
	if g.FnLateUpdate != nil {
		if err := g.FnLateUpdate(delta); err != nil {
			return fmt.Errorf("game late update failed: %w", err)
		}
	}

	e.pipeline.PreparePresentationBuffer()
	if err := e.pipeline.Render(); err != nil {
		core.LogError("render: %s", err)
	}

	if g.FnPostRender != nil {
		if err := g.FnPostRender(delta); err != nil {
			return fmt.Errorf("game post render failed: %w", err)
		}
	}
	if e.platform != nil {
		e.platform.SwapBuffers()
	}

	// NOTE: Input update/state copying should always be handled
	// after any input should be recorded; I.E. before this line.
	return core.InputUpdate(delta)
}

// Stop ends Run after the current frame.
func (e *Engine) Stop() {
	e.isRunning = false
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if g := e.gameInstance; g.FnShutdown != nil {
		errs = append(errs, g.FnShutdown())
	}
	if e.assetManager != nil {
		errs = append(errs, e.assetManager.Shutdown())
	}
	errs = append(errs, e.systemManager.Shutdown())
	if e.context != nil {
		errs = append(errs, e.context.DestroyAll())
	}
	errs = append(errs, core.EventSystemShutdown(), core.InputShutdown())
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

func (e *Engine) Context() *renderer.Context {
	return e.context
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (int32, int32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	width := int32(se.WindowWidth)
	height := int32(se.WindowHeight)
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
	if g := e.gameInstance; g.FnOnResize != nil {
		if err := g.FnOnResize(width, height); err != nil {
			core.LogError("game resize: %s", err)
		}
	}
	if err := e.context.Resize(width, height); err != nil {
		core.LogError("render context resize: %s", err)
	}
	return false
}
