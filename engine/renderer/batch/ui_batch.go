package batch

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/renderer"
)

type UIVertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec4
}

func UILayout() *renderer.VertexLayout {
	l := renderer.NewVertexLayout()
	renderer.PushAttribute[mgl32.Vec2](l, 1, false)
	renderer.PushAttribute[mgl32.Vec4](l, 1, false)
	return l
}

// UIBatch draws flat rectangles in pixel space. Pair it with a UICamera.
type UIBatch struct {
	*Batch[UIVertex]
}

func NewUIBatch(ctx *renderer.Context, cfg Config) *UIBatch {
	return &UIBatch{
		Batch: New[UIVertex](ctx, cfg, renderer.UIShaderName, renderer.UIShaderSource, UILayout(), Hooks{}),
	}
}

// DrawRect fills the rectangle spanning min and max.
func (ub *UIBatch) DrawRect(min, max mgl32.Vec2, color mgl32.Vec4) error {
	if err := ub.VerifySpace(4, 6); err != nil {
		return err
	}
	verts := ub.writeQuad()
	verts[0] = UIVertex{Position: min, Color: color}
	verts[1] = UIVertex{Position: mgl32.Vec2{min.X(), max.Y()}, Color: color}
	verts[2] = UIVertex{Position: max, Color: color}
	verts[3] = UIVertex{Position: mgl32.Vec2{max.X(), min.Y()}, Color: color}
	ub.IncrementCounts(4, 6)
	return nil
}
