package renderer

import _ "embed"

// Built-in shader names as cached by Context.GetOrCreateShader.
const (
	ShapeShaderName   = "ShapeBatch"
	PickingShaderName = "PickingBatch"
	UIShaderName      = "UIBatch"
)

var (
	//go:embed shaders/shape.glsl
	ShapeShaderSource string
	//go:embed shaders/picking.glsl
	PickingShaderSource string
	//go:embed shaders/ui.glsl
	UIShaderSource string
)

// BuiltinShaderSource returns the embedded source for a built-in shader name.
func BuiltinShaderSource(name string) (string, bool) {
	switch name {
	case ShapeShaderName:
		return ShapeShaderSource, true
	case PickingShaderName:
		return PickingShaderSource, true
	case UIShaderName:
		return UIShaderSource, true
	}
	return "", false
}
