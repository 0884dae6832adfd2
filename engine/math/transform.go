package math

import "github.com/go-gl/mathgl/mgl32"

// Compose2D builds translate(position, layer) * rotateZ(rotation) * scale.
// rotation is in degrees.
func Compose2D(position mgl32.Vec2, rotation, layer float32, scale mgl32.Vec2) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), layer).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotation))).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), 1))
}

// Transform is a 2D position/rotation/scale with an optional parent. The
// local matrix is rebuilt only after a setter marks it dirty.
type Transform struct {
	Position mgl32.Vec2
	// Rotation in degrees around Z.
	Rotation float32
	Layer    float32
	Scale    mgl32.Vec2
	IsDirty  bool
	Local    mgl32.Mat4
	Parent   *Transform
}

func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(mgl32.Vec2{}, 0, mgl32.Vec2{1, 1})
}

func TransformFromPosition(position mgl32.Vec2) *Transform {
	return TransformFromPositionRotationScale(position, 0, mgl32.Vec2{1, 1})
}

func TransformFromPositionRotationScale(position mgl32.Vec2, rotation float32, scale mgl32.Vec2) *Transform {
	t := &Transform{Local: mgl32.Ident4()}
	t.SetPositionRotationScale(position, rotation, scale)
	return t
}

func (t *Transform) SetPosition(position mgl32.Vec2) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec2) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation float32) {
	t.Rotation = rotation
	t.IsDirty = true
}

func (t *Transform) Rotate(degrees float32) {
	t.Rotation += degrees
	t.IsDirty = true
}

func (t *Transform) SetLayer(layer float32) {
	t.Layer = layer
	t.IsDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec2) {
	t.Scale = scale
	t.IsDirty = true
}

func (t *Transform) SetPositionRotationScale(position mgl32.Vec2, rotation float32, scale mgl32.Vec2) {
	t.Position = position
	t.Rotation = rotation
	t.Scale = scale
	t.IsDirty = true
}

func (t *Transform) GetLocal() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	if t.IsDirty {
		t.Local = Compose2D(t.Position, t.Rotation, t.Layer, t.Scale)
		t.IsDirty = false
	}
	return t.Local
}

func (t *Transform) GetWorld() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	l := t.GetLocal()
	if t.Parent != nil {
		return t.Parent.GetWorld().Mul4(l)
	}
	return l
}
