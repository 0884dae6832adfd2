package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
	"github.com/spaghettifunk/ember/engine/renderer/gpu/headless"
)

func headlessConfig() *ApplicationConfig {
	cfg := DefaultConfig()
	cfg.Window.Width, cfg.Window.Height = 320, 200
	cfg.Render.Backend = "headless"
	cfg.Assets.Watch = false
	cfg.Log.Level = "error"
	return &ApplicationConfig{Config: cfg}
}

type recorder struct {
	fixed   int
	updates int
	renders int
	resizes [][2]int32
}

func newRecordingGame(rec *recorder) *Game {
	g := &Game{ApplicationConfig: headlessConfig()}
	g.FnInitialize = func() error {
		g.Pipeline.AddStage("count", func(*renderer.Pipeline) error {
			rec.renders++
			return nil
		})
		return nil
	}
	g.FnFixedUpdate = func(float64) error {
		rec.fixed++
		return nil
	}
	g.FnUpdate = func(float64) error {
		rec.updates++
		return nil
	}
	g.FnOnResize = func(w, h int32) error {
		rec.resizes = append(rec.resizes, [2]int32{w, h})
		return nil
	}
	return g
}

func TestEngineHeadlessFrame(t *testing.T) {
	rec := &recorder{}
	g := newRecordingGame(rec)
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	require.NotNil(t, g.Context)
	require.NotNil(t, g.SystemManager)
	assert.Nil(t, g.Assets, "hot reload is off")
	assert.Equal(t, [][2]int32{{320, 200}}, rec.resizes)

	require.NoError(t, e.Frame(0.05))
	assert.Equal(t, 2, rec.fixed, "0.05s holds two fixed steps")
	assert.Equal(t, 1, rec.updates)
	assert.Equal(t, 1, rec.renders)

	require.NoError(t, e.Frame(0.015))
	assert.Equal(t, 3, rec.fixed, "the remainder carries over")

	dev := g.Context.Device().(*headless.Device)
	clears := dev.Clears()
	require.NotEmpty(t, clears)
	assert.Equal(t, gpu.ClearAll, clears[0], "each frame starts on a cleared window")

	require.NoError(t, e.Shutdown())
	assert.Zero(t, g.Context.Live())
}

func TestEngineResizeEvents(t *testing.T) {
	rec := &recorder{}
	g := newRecordingGame(rec)
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 640, WindowHeight: 480}})
	w, h := e.GetFramebufferSize()
	assert.Equal(t, [2]int32{640, 480}, [2]int32{w, h})
	cw, ch := g.Context.Size()
	assert.Equal(t, [2]int32{640, 480}, [2]int32{cw, ch})
	assert.Equal(t, [2]int32{640, 480}, rec.resizes[len(rec.resizes)-1])

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{}})
	assert.True(t, e.IsSuspended(), "a zero size suspends")
	cw, _ = g.Context.Size()
	assert.Equal(t, int32(640), cw, "the context keeps its last real size")

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 100, WindowHeight: 50}})
	assert.False(t, e.IsSuspended())
}

func TestEngineQuitOnEscape(t *testing.T) {
	e, err := New(newRecordingGame(&recorder{}))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED, Data: &core.KeyEvent{KeyCode: core.KEY_ESCAPE}})
	require.NoError(t, e.Run(), "run returns at once after quit")
}

func TestEngineGameErrors(t *testing.T) {
	boom := errors.New("boom")
	g := newRecordingGame(&recorder{})
	g.FnUpdate = func(float64) error { return boom }
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()

	assert.ErrorIs(t, e.Frame(0.01), boom)

	bad := headlessConfig()
	bad.Workers.Count = 0
	_, err = New(&Game{ApplicationConfig: bad})
	assert.ErrorIs(t, err, core.ErrNoWorkers)
}
