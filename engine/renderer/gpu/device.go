// Package gpu describes the graphics API surface the renderer is written
// against. Every call follows bind-then-operate semantics: data and draw
// calls act on whatever object is currently bound to the relevant target.
// Object id 0 always means "none" or the default framebuffer.
package gpu

import "github.com/go-gl/mathgl/mgl32"

type Device interface {
	CreateBuffer() uint32
	DeleteBuffer(id uint32)
	BindBuffer(target BufferTarget, id uint32)
	// BufferData replaces the storage of the bound buffer. A nil data slice
	// with size > 0 allocates without uploading.
	BufferData(target BufferTarget, size int, data []byte, usage UsageHint)
	BufferSubData(target BufferTarget, offset int, data []byte)

	CreateVertexArray() uint32
	DeleteVertexArray(id uint32)
	BindVertexArray(id uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, components int32, kind ScalarType, normalized bool, stride int32, offset int)
	VertexAttribIPointer(index uint32, components int32, kind ScalarType, stride int32, offset int)

	CreateTexture() uint32
	DeleteTexture(id uint32)
	ActiveTexture(unit uint32)
	BindTexture(id uint32)
	// TexImage2D (re)allocates storage of the bound texture. Nil pixels
	// allocate without uploading.
	TexImage2D(internal PixelFormat, width, height int32, format PixelFormat, kind PixelType, pixels []byte)
	TexParameters(filter TextureFilter, wrap TextureWrap)

	CreateFramebuffer() uint32
	DeleteFramebuffer(id uint32)
	BindFramebuffer(target FramebufferTarget, id uint32)
	FramebufferTexture2D(target FramebufferTarget, attachment Attachment, texture uint32)
	DrawBuffers(attachments []Attachment)
	CheckFramebufferStatus(target FramebufferTarget) FramebufferStatus
	ReadBuffer(attachment Attachment)
	ReadPixels(x, y, width, height int32, format PixelFormat, kind PixelType, dst []byte)

	// CompileShader returns the shader object or the driver info log as error.
	CompileShader(stage ShaderStage, source string) (uint32, error)
	DeleteShader(id uint32)
	// LinkProgram links the given shader objects into a new program.
	LinkProgram(shaders ...uint32) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)
	ActiveUniforms(program uint32) []UniformInfo
	Uniform1i(location int32, v int32)
	Uniform1iv(location int32, v []int32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, v mgl32.Vec2)
	Uniform3f(location int32, v mgl32.Vec3)
	Uniform4f(location int32, v mgl32.Vec4)
	UniformMatrix4f(location int32, v mgl32.Mat4)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	Enable(capability Capability)
	Disable(capability Capability)
	DrawElements(mode Primitive, count int32, kind ScalarType, offset int)

	// Label attaches a debug name to a native object. Backends without
	// debug-label support ignore it.
	Label(kind ObjectKind, id uint32, label string)
}
