package gpu

import "strings"

type ObjectKind uint8

const (
	ObjectBuffer ObjectKind = iota
	ObjectVertexArray
	ObjectTexture
	ObjectProgram
	ObjectFramebuffer
)

// ObjectKinds lists every kind in registry order.
var ObjectKinds = [...]ObjectKind{ObjectBuffer, ObjectVertexArray, ObjectTexture, ObjectProgram, ObjectFramebuffer}

func (k ObjectKind) String() string {
	switch k {
	case ObjectBuffer:
		return "buffer"
	case ObjectVertexArray:
		return "vertex_array"
	case ObjectTexture:
		return "texture"
	case ObjectProgram:
		return "shader"
	case ObjectFramebuffer:
		return "framebuffer"
	}
	return "unknown"
}

type BufferTarget uint8

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

type UsageHint uint8

const (
	StaticDraw UsageHint = iota
	DynamicDraw
	StreamDraw
)

type FramebufferTarget uint8

const (
	// Framebuffer binds both the read and the draw target.
	Framebuffer FramebufferTarget = iota
	ReadFramebuffer
	DrawFramebuffer
)

func (t FramebufferTarget) String() string {
	switch t {
	case ReadFramebuffer:
		return "read"
	case DrawFramebuffer:
		return "draw"
	}
	return "framebuffer"
}

// Attachment is a framebuffer attachment point. Colour attachments are
// ColorAttachment0 + i.
type Attachment uint32

const (
	NoAttachment           Attachment = 0
	DepthAttachment        Attachment = 0x100
	DepthStencilAttachment Attachment = 0x101
	ColorAttachment0       Attachment = 0x200
)

func ColorAttachment(i int) Attachment {
	return ColorAttachment0 + Attachment(i)
}

func (a Attachment) IsColor() bool {
	return a >= ColorAttachment0
}

type PixelFormat uint8

const (
	RGBA PixelFormat = iota
	RGBA8
	RGB
	RGB32UI
	R32UI
	RGBAInteger
	RGBInteger
	RedInteger
	Depth24Stencil8
	DepthStencil
	DepthComponent
)

// Channels is the number of components a client-side pixel carries.
func (f PixelFormat) Channels() int {
	switch f {
	case RGBA, RGBA8, RGBAInteger:
		return 4
	case RGB, RGB32UI, RGBInteger:
		return 3
	case R32UI, RedInteger, DepthComponent:
		return 1
	case Depth24Stencil8, DepthStencil:
		return 1
	}
	return 0
}

type PixelType uint8

const (
	UnsignedBytePixel PixelType = iota
	UnsignedIntPixel
	FloatPixel
	UnsignedInt248Pixel
)

// PixelSize returns bytes per pixel for client memory in the given format and type.
func PixelSize(format PixelFormat, kind PixelType) int {
	switch kind {
	case UnsignedBytePixel:
		return format.Channels()
	case UnsignedIntPixel, FloatPixel:
		return format.Channels() * 4
	case UnsignedInt248Pixel:
		return 4
	}
	return 0
}

type ScalarType uint8

const (
	Byte ScalarType = iota
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	Float
	Double
)

func (s ScalarType) Size() int {
	switch s {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case Int, UnsignedInt, Float:
		return 4
	case Double:
		return 8
	}
	return 0
}

func (s ScalarType) IsInteger() bool {
	return s != Float && s != Double
}

type ShaderStage uint8

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	if s == VertexStage {
		return "vertex"
	}
	return "fragment"
}

type Primitive uint8

const (
	Triangles Primitive = iota
	Lines
)

type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

func (m ClearMask) String() string {
	var parts []string
	if m&ClearColor != 0 {
		parts = append(parts, "color")
	}
	if m&ClearDepth != 0 {
		parts = append(parts, "depth")
	}
	if m&ClearStencil != 0 {
		parts = append(parts, "stencil")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

type TextureFilter uint8

const (
	Nearest TextureFilter = iota
	Linear
)

type TextureWrap uint8

const (
	Repeat TextureWrap = iota
	ClampToEdge
)

type Capability uint8

const (
	Blend Capability = iota
	DepthTest
)

type FramebufferStatus uint8

const (
	FramebufferComplete FramebufferStatus = iota
	FramebufferIncompleteAttachment
	FramebufferIncompleteMissingAttachment
	FramebufferUnsupported
	FramebufferUndefined
	FramebufferStatusUnknown
)

func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "complete"
	case FramebufferIncompleteAttachment:
		return "incomplete attachment"
	case FramebufferIncompleteMissingAttachment:
		return "missing attachment"
	case FramebufferUnsupported:
		return "unsupported"
	case FramebufferUndefined:
		return "undefined"
	}
	return "unknown"
}

// UniformInfo describes an active uniform as reported after linking.
// Arrays are reported by their first element, e.g. "uTextures[0]".
type UniformInfo struct {
	Name     string
	Location int32
	Size     int32
}
