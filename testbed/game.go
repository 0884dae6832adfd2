package testbed

import (
	"fmt"
	"image/color"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
	"github.com/spaghettifunk/ember/engine/renderer/components"
	"github.com/spaghettifunk/ember/engine/renderer/views"
	"github.com/spaghettifunk/ember/engine/systems"
)

const (
	gridSize  = 6
	panSpeed  = 4.0
	zoomSpeed = 3.0
)

type TestGame struct {
	*engine.Game
}

type box struct {
	id        uint32
	transform *math.Transform
	color     mgl32.Vec4
	spin      float32
}

type gameState struct {
	camera *components.OrthoCamera

	pick  *views.RenderViewPick
	world *views.RenderViewWorld
	ui    *views.RenderViewUI

	boxes   []*box
	label   *renderer.Texture
	meshes  *systems.MeshBuilder[batch.ShapeVertex]
	rings   []*systems.Mesh
	hovered uint32
}

func NewTestGame(cfg *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: cfg,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnFixedUpdate = tg.FixedUpdate
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	s := g.state()
	ctx := g.Context
	bc := g.ApplicationConfig.BatchConfig()

	s.camera = components.NewOrthoCamera(mgl32.Vec2{0, 0}, components.DefaultViewSizeX)
	ctx.RegisterCamera(s.camera)

	for i := 0; i < gridSize*gridSize; i++ {
		x := float32(i%gridSize) - float32(gridSize-1)/2
		y := float32(i/gridSize) - float32(gridSize-1)/2
		t := math.TransformFromPositionRotationScale(mgl32.Vec2{x * 1.2, y * 1.2}, 0, mgl32.Vec2{0.8, 0.8})
		s.boxes = append(s.boxes, &box{
			id:        uint32(i + 1),
			transform: t,
			color:     mgl32.Vec4{0.2 + 0.8*float32(i%gridSize)/gridSize, 0.3, 0.2 + 0.8*float32(i/gridSize)/gridSize, 1},
			spin:      float32(10 + 5*(i%4)),
		})
	}

	label, err := renderer.NewTextTexture(ctx, "ember", 48, color.White)
	if err != nil {
		return err
	}
	s.label = label

	pick, err := views.NewRenderViewPick(ctx, s.camera, bc, g.drawPicking)
	if err != nil {
		return err
	}
	world, err := views.NewRenderViewWorld(ctx, s.camera, bc, g.drawWorld)
	if err != nil {
		return err
	}
	ui, err := views.NewRenderViewUI(ctx, bc, g.drawUI)
	if err != nil {
		return err
	}
	s.pick, s.world, s.ui = pick, world, ui
	g.Pipeline.AddStages(pick.Stage(), world.Stage())
	g.Pipeline.AddStage("rings", g.drawRings)
	g.Pipeline.AddStages(ui.Stage())

	core.EventRegister(core.EVENT_CODE_OBJECT_HOVER_ID_CHANGED, g, g.onHover)

	s.meshes = systems.NewMeshBuilder[batch.ShapeVertex](g.SystemManager.JobSystem())
	for i := 0; i < 3; i++ {
		radius := float32(i+1) * 4.5
		if err := s.meshes.Submit(uint64(i), func() (systems.MeshData[batch.ShapeVertex], error) {
			return buildRing(radius, 0.1, 64, mgl32.Vec4{1, 0.6, 0.1, 0.6}), nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) FixedUpdate(deltaTime float64) error {
	for _, b := range g.state().boxes {
		b.transform.Rotate(b.spin * float32(deltaTime))
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	dt := float32(deltaTime)

	var move mgl32.Vec2
	if core.InputIsKeyDown(core.KEY_W) || core.InputIsKeyDown(core.KEY_UP) {
		move[1]++
	}
	if core.InputIsKeyDown(core.KEY_S) || core.InputIsKeyDown(core.KEY_DOWN) {
		move[1]--
	}
	if core.InputIsKeyDown(core.KEY_D) || core.InputIsKeyDown(core.KEY_RIGHT) {
		move[0]++
	}
	if core.InputIsKeyDown(core.KEY_A) || core.InputIsKeyDown(core.KEY_LEFT) {
		move[0]--
	}
	if move.Len() > 0 {
		s.camera.SetPosition(s.camera.Position().Add(move.Normalize().Mul(panSpeed * dt)))
	}
	if core.InputIsKeyDown(core.KEY_Q) {
		s.camera.SetViewSizeX(math.Clamp(s.camera.ViewSizeX()+zoomSpeed*dt, 1, 50))
	}
	if core.InputIsKeyDown(core.KEY_E) {
		s.camera.SetViewSizeX(math.Clamp(s.camera.ViewSizeX()-zoomSpeed*dt, 1, 50))
	}

	for _, r := range s.meshes.Drain() {
		if r.Err != nil {
			core.LogError("ring %d: %s", r.ID, r.Err)
			continue
		}
		m, err := systems.UploadMesh(g.Context, batch.ShapeLayout(), fmt.Sprintf("ring%d", r.ID), r.Data)
		if err != nil {
			return err
		}
		s.rings = append(s.rings, m)
	}
	return nil
}

func (g *TestGame) OnResize(width int32, height int32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	s := g.state()
	core.EventUnregister(core.EVENT_CODE_OBJECT_HOVER_ID_CHANGED, g)
	if err := s.pick.OnDestroy(); err != nil {
		return err
	}
	if err := s.world.OnDestroy(); err != nil {
		return err
	}
	if err := s.ui.OnDestroy(); err != nil {
		return err
	}
	for _, m := range s.rings {
		if err := m.Destroy(); err != nil {
			return err
		}
	}
	return s.label.Destroy()
}

func (g *TestGame) drawPicking(pb *batch.PickingBatch) error {
	for _, b := range g.state().boxes {
		if err := pb.DrawQuad(b.id, b.transform.GetWorld()); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) drawWorld(sb *batch.ShapeBatch) error {
	s := g.state()
	for _, b := range s.boxes {
		c := b.color
		if b.id == s.hovered {
			c = mgl32.Vec4{1, 1, 1, 1}
		}
		if err := sb.DrawTransform(b.transform, c); err != nil {
			return err
		}
	}
	aspect := float32(s.label.Width()) / float32(s.label.Height())
	top := float32(gridSize) * 0.6
	return sb.DrawTextured(math.Compose2D(mgl32.Vec2{0, top + 0.6}, 0, 0.5, mgl32.Vec2{aspect * 0.8, 0.8}),
		mgl32.Vec4{1, 1, 1, 1}, s.label, renderer.FullUVs)
}

// drawRings draws the meshes built in the background with the shape shader.
func (g *TestGame) drawRings(_ *renderer.Pipeline) error {
	s := g.state()
	if len(s.rings) == 0 {
		return nil
	}
	shader := s.world.Batch.Shader()
	shader.Bind()
	defer shader.Unbind()
	if err := shader.SetMat4("uProjection", s.camera.Projection()); err != nil {
		return err
	}
	if err := shader.SetMat4("uView", s.camera.View()); err != nil {
		return err
	}
	for _, m := range s.rings {
		m.Draw()
	}
	return nil
}

func (g *TestGame) drawUI(ub *batch.UIBatch) error {
	s := g.state()
	if err := ub.DrawRect(mgl32.Vec2{10, 10}, mgl32.Vec2{260, 40}, mgl32.Vec4{0, 0, 0, 0.6}); err != nil {
		return err
	}
	// one notch per grid cell, lit for the hovered box
	for i := 0; i < gridSize*gridSize; i++ {
		c := mgl32.Vec4{0.3, 0.3, 0.3, 1}
		if uint32(i+1) == s.hovered {
			c = mgl32.Vec4{1, 0.6, 0.1, 1}
		}
		x := float32(14 + i*7)
		if err := ub.DrawRect(mgl32.Vec2{x, 18}, mgl32.Vec2{x + 5, 32}, c); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) onHover(context core.EventContext) bool {
	if he, ok := context.Data.(*core.HoverEvent); ok {
		g.state().hovered = he.ObjectID
	}
	return false
}

// buildRing returns a flat ring of quads. It runs on a worker goroutine.
func buildRing(radius, thickness float32, segments int, c mgl32.Vec4) systems.MeshData[batch.ShapeVertex] {
	data := systems.MeshData[batch.ShapeVertex]{
		Vertices: make([]batch.ShapeVertex, 0, segments*2),
		Indices:  make([]uint32, 0, segments*6),
	}
	for i := 0; i < segments; i++ {
		a := 2 * gomath.Pi * float64(i) / float64(segments)
		dir := mgl32.Vec2{float32(gomath.Cos(a)), float32(gomath.Sin(a))}
		inner := dir.Mul(radius - thickness/2)
		outer := dir.Mul(radius + thickness/2)
		data.Vertices = append(data.Vertices,
			batch.ShapeVertex{Position: mgl32.Vec4{inner.X(), inner.Y(), -1, 1}, Color: c, TextureID: batch.NoTexture},
			batch.ShapeVertex{Position: mgl32.Vec4{outer.X(), outer.Y(), -1, 1}, Color: c, TextureID: batch.NoTexture},
		)
		cur := uint32(i * 2)
		next := uint32(((i + 1) % segments) * 2)
		data.Indices = append(data.Indices, cur, cur+1, next+1, cur, next+1, next)
	}
	return data
}
