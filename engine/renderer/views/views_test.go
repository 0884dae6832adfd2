package views

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
	"github.com/spaghettifunk/ember/engine/renderer/components"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
	"github.com/spaghettifunk/ember/engine/renderer/gpu/headless"
)

func newTestPipeline(t *testing.T) (*renderer.Pipeline, *renderer.Context, *headless.Device) {
	t.Helper()
	require.True(t, core.EventSystemInitialize())
	t.Cleanup(func() { _ = core.EventSystemShutdown() })

	dev := headless.New(64, 48)
	ctx := renderer.NewContext(dev, 64, 48)
	p := renderer.NewPipeline(ctx, 0)
	ctx.SetPipeline(p)
	return p, ctx, dev
}

func TestPickViewFiresHoverChanges(t *testing.T) {
	p, ctx, dev := newTestPipeline(t)
	camera := components.NewOrthoCamera(mgl32.Vec2{}, 5)
	ctx.RegisterCamera(camera)

	var under uint32
	pv, err := NewRenderViewPick(ctx, camera, batch.DefaultConfig(), func(pb *batch.PickingBatch) error {
		if err := pb.DrawBoxAt(7, mgl32.Vec2{}); err != nil {
			return err
		}
		// stand in for rasterization of the box under the cursor
		ids, err := pickTarget(ctx)
		if err != nil {
			return err
		}
		return dev.SetPixel(ids.ID(), 10, 40, []byte{byte(under), 0, 0, 0})
	})
	require.NoError(t, err)
	p.AddStages(pv.Stage())

	var hovered []uint32
	listener := new(int)
	core.EventRegister(core.EVENT_CODE_OBJECT_HOVER_ID_CHANGED, listener, func(ev core.EventContext) bool {
		hovered = append(hovered, ev.Data.(*core.HoverEvent).ObjectID)
		return false
	})

	// the cursor arrives through the input event stream
	require.NoError(t, core.InputInitialize())
	t.Cleanup(func() { _ = core.InputShutdown() })
	require.NoError(t, core.InputProcessMouseMove(10, 47-40))
	assert.Equal(t, int32(10), pv.MouseX)

	under = 7
	require.NoError(t, p.Render())
	assert.Equal(t, uint32(7), pv.Hovered())

	require.NoError(t, p.Render())
	assert.Equal(t, []uint32{7}, hovered, "an unchanged index fires nothing")

	under = 0
	require.NoError(t, p.Render())
	assert.Equal(t, []uint32{7, 0}, hovered)

	draws := dev.DrawCalls()
	require.Len(t, draws, 3)
	assert.Equal(t, pv.Framebuffer.ID(), draws[0].Framebuffer, "indices render into the pick target")
	assert.Zero(t, dev.BoundFramebuffer(gpu.Framebuffer))
	assert.Equal(t, 0, p.Depth())

	require.NoError(t, pv.OnDestroy())
	require.NoError(t, core.InputProcessMouseMove(1, 1))
	assert.Equal(t, int32(10), pv.MouseX, "a destroyed view stops tracking the cursor")
}

// pickTarget finds the R32UI texture of the live pick framebuffer.
func pickTarget(ctx *renderer.Context) (*renderer.Texture, error) {
	top, ok := ctx.Pipeline().Active()
	if !ok {
		return nil, core.ErrStackEmpty
	}
	return top.Framebuffer.TargetTexture(0)
}

func TestPickViewClampsCursor(t *testing.T) {
	p, ctx, _ := newTestPipeline(t)
	camera := components.NewOrthoCamera(mgl32.Vec2{}, 5)

	pv, err := NewRenderViewPick(ctx, camera, batch.DefaultConfig(), nil)
	require.NoError(t, err)
	p.AddStages(pv.Stage())

	pv.MouseX, pv.MouseY = -20, 5000
	require.NoError(t, p.Render(), "a cursor outside the window reads the nearest edge")
	assert.Zero(t, pv.Hovered())
}

func TestWorldAndUIViews(t *testing.T) {
	p, ctx, dev := newTestPipeline(t)
	camera := components.NewOrthoCamera(mgl32.Vec2{}, 5)
	ctx.RegisterCamera(camera)

	world, err := NewRenderViewWorld(ctx, camera, batch.DefaultConfig(), func(sb *batch.ShapeBatch) error {
		for i := 0; i < 3; i++ {
			if err := sb.DrawBoxAt(mgl32.Vec2{float32(i), 0}, mgl32.Vec4{1, 0, 0, 1}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	ui, err := NewRenderViewUI(ctx, batch.DefaultConfig(), func(ub *batch.UIBatch) error {
		return ub.DrawRect(mgl32.Vec2{0, 0}, mgl32.Vec2{20, 10}, mgl32.Vec4{1, 1, 1, 1})
	})
	require.NoError(t, err)
	p.AddStages(world.Stage(), ui.Stage())

	require.NoError(t, p.Render())
	draws := dev.DrawCalls()
	require.Len(t, draws, 2)
	assert.Equal(t, int32(18), draws[0].Count)
	assert.Equal(t, world.Batch.Shader().ID(), draws[0].Program)
	assert.Equal(t, int32(6), draws[1].Count)
	assert.Equal(t, ui.Batch.Shader().ID(), draws[1].Program)

	require.NoError(t, ctx.Resize(128, 96))
	assert.Equal(t, mgl32.Ortho(0, 128, 96, 0, -1, 1), ui.Camera.Projection(), "the UI camera follows the window")

	require.NoError(t, world.OnDestroy())
	require.NoError(t, ui.OnDestroy())
	assert.Zero(t, ctx.LiveCount(gpu.ObjectVertexArray))
}
