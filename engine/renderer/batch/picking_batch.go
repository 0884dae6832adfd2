package batch

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer"
)

// PickingVertex carries the object index written to the picking target.
type PickingVertex struct {
	Position mgl32.Vec4
	Index    uint32
}

func PickingLayout() *renderer.VertexLayout {
	l := renderer.NewVertexLayout()
	renderer.PushAttribute[mgl32.Vec4](l, 1, false)
	renderer.PushAttribute[uint32](l, 1, false)
	return l
}

// PickingBatch draws quads whose pixels hold an object index instead of a
// colour. Index 0 is reserved for "nothing".
type PickingBatch struct {
	*Batch[PickingVertex]
}

func NewPickingBatch(ctx *renderer.Context, cfg Config) *PickingBatch {
	return &PickingBatch{
		Batch: New[PickingVertex](ctx, cfg, renderer.PickingShaderName, renderer.PickingShaderSource, PickingLayout(), Hooks{}),
	}
}

// NewPickingBatchFor sizes a picking batch like an existing shape batch so
// the same draws fit in both.
func NewPickingBatchFor(ctx *renderer.Context, shapes *ShapeBatch) *PickingBatch {
	return NewPickingBatch(ctx, shapes.Config())
}

func (pb *PickingBatch) DrawBox(index uint32, position mgl32.Vec2, rotation, layer float32, scale mgl32.Vec2) error {
	return pb.DrawQuad(index, math.Compose2D(position, rotation, layer, scale))
}

func (pb *PickingBatch) DrawQuad(index uint32, transform mgl32.Mat4) error {
	if err := pb.VerifySpace(4, 6); err != nil {
		return err
	}
	verts := pb.writeQuad()
	for i := range verts {
		verts[i] = PickingVertex{Position: transform.Mul4x1(quadCorners[i]), Index: index}
	}
	pb.IncrementCounts(4, 6)
	return nil
}

func (pb *PickingBatch) DrawBoxAt(index uint32, position mgl32.Vec2) error {
	if err := pb.VerifySpace(4, 6); err != nil {
		return err
	}
	offset := mgl32.Vec4{position.X(), position.Y(), 0, 0}
	verts := pb.writeQuad()
	for i := range verts {
		verts[i] = PickingVertex{Position: quadCorners[i].Add(offset), Index: index}
	}
	pb.IncrementCounts(4, 6)
	return nil
}
