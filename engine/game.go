package engine

import (
	"github.com/spaghettifunk/ember/engine/assets"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/systems"
)

// Game is implemented by the application. The engine fills Context,
// Pipeline, Assets and SystemManager before calling FnInitialize. Every
// hook except FnInitialize is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Context           *renderer.Context
	Pipeline          *renderer.Pipeline
	Assets            *assets.AssetManager
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnFixedUpdate     Update
	FnUpdate          Update
	FnLateUpdate      Update
	FnPostRender      Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width int32, height int32) error
type Shutdown func() error
