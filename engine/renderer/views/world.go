package views

import (
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/batch"
)

type WorldDrawFunc func(sb *batch.ShapeBatch) error

// RenderViewWorld draws the scene with a shape batch into whatever
// framebuffer is active.
type RenderViewWorld struct {
	Batch  *batch.ShapeBatch
	Camera renderer.Camera
	Draw   WorldDrawFunc
}

func NewRenderViewWorld(ctx *renderer.Context, camera renderer.Camera, cfg batch.Config, draw WorldDrawFunc) (*RenderViewWorld, error) {
	sb := batch.NewShapeBatch(ctx, cfg)
	if err := sb.Initialize(); err != nil {
		return nil, err
	}
	return &RenderViewWorld{Batch: sb, Camera: camera, Draw: draw}, nil
}

func (vw *RenderViewWorld) Stage() renderer.Stage {
	return renderer.Stage{Name: "world", Fn: vw.OnRender}
}

func (vw *RenderViewWorld) OnRender(_ *renderer.Pipeline) error {
	if err := vw.Batch.Begin(vw.Camera); err != nil {
		return err
	}
	if vw.Draw != nil {
		if err := vw.Draw(vw.Batch); err != nil {
			return err
		}
	}
	return vw.Batch.End()
}

func (vw *RenderViewWorld) OnDestroy() error {
	return vw.Batch.Destroy()
}
