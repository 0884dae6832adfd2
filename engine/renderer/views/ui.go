package views

import (
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
	"github.com/spaghettifunk/ember/engine/renderer/components"
)

type UIDrawFunc func(ub *batch.UIBatch) error

// RenderViewUI draws pixel-space rectangles on top of the frame.
type RenderViewUI struct {
	Batch  *batch.UIBatch
	Camera *components.UICamera
	Draw   UIDrawFunc
}

// NewRenderViewUI registers its own pixel camera with ctx so it follows
// window resizes.
func NewRenderViewUI(ctx *renderer.Context, cfg batch.Config, draw UIDrawFunc) (*RenderViewUI, error) {
	ub := batch.NewUIBatch(ctx, cfg)
	if err := ub.Initialize(); err != nil {
		return nil, err
	}
	camera := components.NewUICamera()
	ctx.RegisterCamera(camera)
	return &RenderViewUI{Batch: ub, Camera: camera, Draw: draw}, nil
}

func (vu *RenderViewUI) Stage() renderer.Stage {
	return renderer.Stage{Name: "ui", Fn: vu.OnRender}
}

func (vu *RenderViewUI) OnRender(_ *renderer.Pipeline) error {
	if err := vu.Batch.Begin(vu.Camera); err != nil {
		return err
	}
	if vu.Draw != nil {
		if err := vu.Draw(vu.Batch); err != nil {
			return err
		}
	}
	return vu.Batch.End()
}

func (vu *RenderViewUI) OnDestroy() error {
	return vu.Batch.Destroy()
}
