package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// AttributeType lists the Go types a vertex attribute can be declared with.
type AttributeType interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | float32 | float64 |
		mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4
}

type attributeTraits struct {
	scalar     gpu.ScalarType
	components int32
}

// traitsOf maps a declared type to its scalar kind and component count.
// The switch is resolved per instantiation.
func traitsOf[T AttributeType]() attributeTraits {
	var zero T
	switch any(zero).(type) {
	case int8:
		return attributeTraits{gpu.Byte, 1}
	case uint8:
		return attributeTraits{gpu.UnsignedByte, 1}
	case int16:
		return attributeTraits{gpu.Short, 1}
	case uint16:
		return attributeTraits{gpu.UnsignedShort, 1}
	case int32:
		return attributeTraits{gpu.Int, 1}
	case uint32:
		return attributeTraits{gpu.UnsignedInt, 1}
	case float64:
		return attributeTraits{gpu.Double, 1}
	case mgl32.Vec2:
		return attributeTraits{gpu.Float, 2}
	case mgl32.Vec3:
		return attributeTraits{gpu.Float, 3}
	case mgl32.Vec4:
		return attributeTraits{gpu.Float, 4}
	}
	return attributeTraits{gpu.Float, 1}
}

type Attribute struct {
	Index      uint32
	Offset     int
	Components int32
	Scalar     gpu.ScalarType
	Normalized bool
}

// Size is the attribute's byte size inside one vertex.
func (a Attribute) Size() int {
	return int(a.Components) * a.Scalar.Size()
}

// Integer reports whether the attribute is fed to the shader as an integer
// (ivec/uvec) rather than converted to float.
func (a Attribute) Integer() bool {
	return !a.Normalized && (a.Scalar == gpu.Int || a.Scalar == gpu.UnsignedInt)
}

// VertexLayout is the ordered attribute list of one vertex record. Indices
// follow push order and must match the shader's attribute locations.
type VertexLayout struct {
	attributes []Attribute
	stride     int
}

func NewVertexLayout() *VertexLayout {
	return &VertexLayout{}
}

// PushAttribute appends count elements of T as the next attribute.
func PushAttribute[T AttributeType](l *VertexLayout, count int32, normalized bool) *VertexLayout {
	t := traitsOf[T]()
	a := Attribute{
		Index:      uint32(len(l.attributes)),
		Offset:     l.stride,
		Components: t.components * count,
		Scalar:     t.scalar,
		Normalized: normalized,
	}
	l.attributes = append(l.attributes, a)
	l.stride += a.Size()
	return l
}

func (l *VertexLayout) Attributes() []Attribute {
	return l.attributes
}

func (l *VertexLayout) Stride() int {
	return l.stride
}
