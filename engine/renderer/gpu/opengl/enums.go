package opengl

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

func bufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func usageHint(u gpu.UsageHint) uint32 {
	switch u {
	case gpu.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case gpu.StreamDraw:
		return gl.STREAM_DRAW
	}
	return gl.STATIC_DRAW
}

func framebufferTarget(t gpu.FramebufferTarget) uint32 {
	switch t {
	case gpu.ReadFramebuffer:
		return gl.READ_FRAMEBUFFER
	case gpu.DrawFramebuffer:
		return gl.DRAW_FRAMEBUFFER
	}
	return gl.FRAMEBUFFER
}

func attachmentPoint(a gpu.Attachment) uint32 {
	switch {
	case a.IsColor():
		return gl.COLOR_ATTACHMENT0 + uint32(a-gpu.ColorAttachment0)
	case a == gpu.DepthAttachment:
		return gl.DEPTH_ATTACHMENT
	case a == gpu.DepthStencilAttachment:
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.NONE
}

func pixelFormat(f gpu.PixelFormat) uint32 {
	switch f {
	case gpu.RGBA:
		return gl.RGBA
	case gpu.RGBA8:
		return gl.RGBA8
	case gpu.RGB:
		return gl.RGB
	case gpu.RGB32UI:
		return gl.RGB32UI
	case gpu.R32UI:
		return gl.R32UI
	case gpu.RGBAInteger:
		return gl.RGBA_INTEGER
	case gpu.RGBInteger:
		return gl.RGB_INTEGER
	case gpu.RedInteger:
		return gl.RED_INTEGER
	case gpu.Depth24Stencil8:
		return gl.DEPTH24_STENCIL8
	case gpu.DepthStencil:
		return gl.DEPTH_STENCIL
	case gpu.DepthComponent:
		return gl.DEPTH_COMPONENT
	}
	return gl.RGBA
}

func pixelType(t gpu.PixelType) uint32 {
	switch t {
	case gpu.UnsignedIntPixel:
		return gl.UNSIGNED_INT
	case gpu.FloatPixel:
		return gl.FLOAT
	case gpu.UnsignedInt248Pixel:
		return gl.UNSIGNED_INT_24_8
	}
	return gl.UNSIGNED_BYTE
}

func scalarType(s gpu.ScalarType) uint32 {
	switch s {
	case gpu.Byte:
		return gl.BYTE
	case gpu.UnsignedByte:
		return gl.UNSIGNED_BYTE
	case gpu.Short:
		return gl.SHORT
	case gpu.UnsignedShort:
		return gl.UNSIGNED_SHORT
	case gpu.Int:
		return gl.INT
	case gpu.UnsignedInt:
		return gl.UNSIGNED_INT
	case gpu.Double:
		return gl.DOUBLE
	}
	return gl.FLOAT
}
