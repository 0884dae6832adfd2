package views

import (
	"fmt"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// PickDrawFunc submits every pickable object with its index. Index 0 is
// reserved for empty space.
type PickDrawFunc func(pb *batch.PickingBatch) error

// RenderViewPick renders object indices into an R32UI target and reads
// back the one under the cursor every frame. A change of the hovered index
// fires EVENT_CODE_OBJECT_HOVER_ID_CHANGED.
type RenderViewPick struct {
	ctx         *renderer.Context
	Framebuffer *renderer.Framebuffer
	Batch       *batch.PickingBatch
	Camera      renderer.Camera
	Draw        PickDrawFunc

	MouseX int32
	MouseY int32

	hovered uint32
}

func NewRenderViewPick(ctx *renderer.Context, camera renderer.Camera, cfg batch.Config, draw PickDrawFunc) (*RenderViewPick, error) {
	info := renderer.FramebufferInfo{
		HasDepth:         true,
		ColorAttachments: []renderer.ColorAttachmentInfo{renderer.PickingAttachment},
		AutoResize:       true,
	}
	fb, err := renderer.NewFramebuffer(ctx, info, "pick")
	if err != nil {
		return nil, err
	}
	pb := batch.NewPickingBatch(ctx, cfg)
	if err := pb.Initialize(); err != nil {
		_ = fb.Destroy()
		return nil, err
	}

	vp := &RenderViewPick{
		ctx:         ctx,
		Framebuffer: fb,
		Batch:       pb,
		Camera:      camera,
		Draw:        draw,
	}
	core.EventRegister(core.EVENT_CODE_MOUSE_MOVED, vp, vp.onMouseMoved)
	return vp, nil
}

// Stage returns the pipeline stage running this view.
func (vp *RenderViewPick) Stage() renderer.Stage {
	return renderer.Stage{Name: "pick", Fn: vp.OnRender}
}

// Hovered is the index under the cursor as of the last rendered frame.
func (vp *RenderViewPick) Hovered() uint32 {
	return vp.hovered
}

func (vp *RenderViewPick) OnRender(p *renderer.Pipeline) error {
	p.PushActiveFramebuffer(vp.Framebuffer, gpu.Framebuffer)

	dev := vp.ctx.Device()
	dev.ClearColor(0, 0, 0, 0)
	vp.ctx.Clear(gpu.ClearColor | gpu.ClearDepth)
	c := vp.ctx.ClearColor()
	dev.ClearColor(c[0], c[1], c[2], c[3])

	if err := vp.Batch.Begin(vp.Camera); err != nil {
		return err
	}
	if vp.Draw != nil {
		if err := vp.Draw(vp.Batch); err != nil {
			return err
		}
	}
	if err := vp.Batch.End(); err != nil {
		return err
	}
	if err := p.PopFramebuffer(); err != nil {
		return err
	}

	// window coordinates are top-down, framebuffer rows bottom-up
	w, h := vp.Framebuffer.Size()
	x := math.Clamp(vp.MouseX, 0, w-1)
	y := math.Clamp(h-1-vp.MouseY, 0, h-1)
	id, err := renderer.ReadPixel[uint32](vp.Framebuffer, x, y, gpu.RedInteger, gpu.UnsignedIntPixel)
	if err != nil {
		return fmt.Errorf("pick readback: %w", err)
	}
	if id != vp.hovered {
		vp.hovered = id
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_OBJECT_HOVER_ID_CHANGED,
			Data: &core.HoverEvent{ObjectID: id},
		})
	}
	return nil
}

func (vp *RenderViewPick) OnDestroy() error {
	core.EventUnregister(core.EVENT_CODE_MOUSE_MOVED, vp)
	if err := vp.Batch.Destroy(); err != nil {
		return err
	}
	return vp.Framebuffer.Destroy()
}

func (vp *RenderViewPick) onMouseMoved(event core.EventContext) bool {
	if e, ok := event.Data.(*core.MouseEvent); ok {
		vp.MouseX = e.PosX
		vp.MouseY = e.PosY
	}
	return false
}
