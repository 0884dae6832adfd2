// Package opengl implements gpu.Device on an OpenGL 4.1 core context.
// All calls must happen on the thread that owns the context.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

type Options struct {
	// DebugLabels enables glObjectLabel. It is only core from 4.3, so keep it
	// off unless the driver exposes KHR_debug.
	DebugLabels bool
}

type Device struct {
	opts Options
}

// New loads the GL function pointers for the current context.
func New(opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	core.LogInfo("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return &Device{opts: opts}, nil
}

func (d *Device) CreateBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (d *Device) DeleteBuffer(id uint32) {
	gl.DeleteBuffers(1, &id)
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) {
	gl.BindBuffer(bufferTarget(target), id)
}

func (d *Device) BufferData(target gpu.BufferTarget, size int, data []byte, usage gpu.UsageHint) {
	gl.BufferData(bufferTarget(target), size, bytesPtr(data), usageHint(usage))
}

func (d *Device) BufferSubData(target gpu.BufferTarget, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(bufferTarget(target), offset, len(data), gl.Ptr(data))
}

func (d *Device) CreateVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (d *Device) DeleteVertexArray(id uint32) {
	gl.DeleteVertexArrays(1, &id)
}

func (d *Device) BindVertexArray(id uint32) {
	gl.BindVertexArray(id)
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (d *Device) VertexAttribPointer(index uint32, components int32, kind gpu.ScalarType, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, components, scalarType(kind), normalized, stride, uintptr(offset))
}

func (d *Device) VertexAttribIPointer(index uint32, components int32, kind gpu.ScalarType, stride int32, offset int) {
	gl.VertexAttribIPointerWithOffset(index, components, scalarType(kind), stride, uintptr(offset))
}

func (d *Device) CreateTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (d *Device) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (d *Device) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (d *Device) BindTexture(id uint32) {
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (d *Device) TexImage2D(internal gpu.PixelFormat, width, height int32, format gpu.PixelFormat, kind gpu.PixelType, pixels []byte) {
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(pixelFormat(internal)), width, height, 0, pixelFormat(format), pixelType(kind), bytesPtr(pixels))
}

func (d *Device) TexParameters(filter gpu.TextureFilter, wrap gpu.TextureWrap) {
	f := int32(gl.NEAREST)
	if filter == gpu.Linear {
		f = gl.LINEAR
	}
	w := int32(gl.REPEAT)
	if wrap == gpu.ClampToEdge {
		w = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, f)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, f)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, w)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, w)
}

func (d *Device) CreateFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (d *Device) DeleteFramebuffer(id uint32) {
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(target gpu.FramebufferTarget, id uint32) {
	gl.BindFramebuffer(framebufferTarget(target), id)
}

func (d *Device) FramebufferTexture2D(target gpu.FramebufferTarget, attachment gpu.Attachment, texture uint32) {
	gl.FramebufferTexture2D(framebufferTarget(target), attachmentPoint(attachment), gl.TEXTURE_2D, texture, 0)
}

func (d *Device) DrawBuffers(attachments []gpu.Attachment) {
	if len(attachments) == 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, len(attachments))
	for i, a := range attachments {
		bufs[i] = attachmentPoint(a)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

func (d *Device) CheckFramebufferStatus(target gpu.FramebufferTarget) gpu.FramebufferStatus {
	switch gl.CheckFramebufferStatus(framebufferTarget(target)) {
	case gl.FRAMEBUFFER_COMPLETE:
		return gpu.FramebufferComplete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return gpu.FramebufferIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return gpu.FramebufferIncompleteMissingAttachment
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return gpu.FramebufferUnsupported
	case gl.FRAMEBUFFER_UNDEFINED:
		return gpu.FramebufferUndefined
	}
	return gpu.FramebufferStatusUnknown
}

func (d *Device) ReadBuffer(attachment gpu.Attachment) {
	gl.ReadBuffer(attachmentPoint(attachment))
}

func (d *Device) ReadPixels(x, y, width, height int32, format gpu.PixelFormat, kind gpu.PixelType, dst []byte) {
	if len(dst) == 0 {
		return
	}
	gl.ReadPixels(x, y, width, height, pixelFormat(format), pixelType(kind), gl.Ptr(dst))
}

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == gpu.FragmentStage {
		kind = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(kind)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s stage: %s", stage, strings.TrimRight(log, "\x00\n"))
	}
	return shader, nil
}

func (d *Device) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func (d *Device) LinkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DetachShader(program, s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%s", strings.TrimRight(log, "\x00\n"))
	}
	return program, nil
}

func (d *Device) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *Device) UseProgram(id uint32) {
	gl.UseProgram(id)
}

func (d *Device) ActiveUniforms(program uint32) []gpu.UniformInfo {
	var count, maxLength int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLength)
	if maxLength <= 0 {
		maxLength = 256
	}

	uniforms := make([]gpu.UniformInfo, 0, count)
	buf := make([]uint8, maxLength)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var kind uint32
		gl.GetActiveUniform(program, uint32(i), maxLength, &length, &size, &kind, &buf[0])
		name := string(buf[:length])
		uniforms = append(uniforms, gpu.UniformInfo{
			Name:     name,
			Location: gl.GetUniformLocation(program, gl.Str(name+"\x00")),
			Size:     size,
		})
	}
	return uniforms
}

func (d *Device) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *Device) Uniform1iv(location int32, v []int32) {
	if len(v) == 0 {
		return
	}
	gl.Uniform1iv(location, int32(len(v)), &v[0])
}

func (d *Device) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *Device) Uniform2f(location int32, v mgl32.Vec2) {
	gl.Uniform2f(location, v[0], v[1])
}

func (d *Device) Uniform3f(location int32, v mgl32.Vec3) {
	gl.Uniform3f(location, v[0], v[1], v[2])
}

func (d *Device) Uniform4f(location int32, v mgl32.Vec4) {
	gl.Uniform4f(location, v[0], v[1], v[2], v[3])
}

func (d *Device) UniformMatrix4f(location int32, v mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &v[0])
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Device) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&gpu.ClearStencil != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) Enable(capability gpu.Capability) {
	switch capability {
	case gpu.Blend:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case gpu.DepthTest:
		gl.Enable(gl.DEPTH_TEST)
	}
}

func (d *Device) Disable(capability gpu.Capability) {
	switch capability {
	case gpu.Blend:
		gl.Disable(gl.BLEND)
	case gpu.DepthTest:
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (d *Device) DrawElements(mode gpu.Primitive, count int32, kind gpu.ScalarType, offset int) {
	m := uint32(gl.TRIANGLES)
	if mode == gpu.Lines {
		m = gl.LINES
	}
	gl.DrawElementsWithOffset(m, count, scalarType(kind), uintptr(offset))
}

func (d *Device) Label(kind gpu.ObjectKind, id uint32, label string) {
	if !d.opts.DebugLabels || label == "" {
		return
	}
	var identifier uint32
	switch kind {
	case gpu.ObjectBuffer:
		identifier = gl.BUFFER
	case gpu.ObjectVertexArray:
		identifier = gl.VERTEX_ARRAY
	case gpu.ObjectTexture:
		identifier = gl.TEXTURE
	case gpu.ObjectProgram:
		identifier = gl.PROGRAM
	case gpu.ObjectFramebuffer:
		identifier = gl.FRAMEBUFFER
	default:
		return
	}
	gl.ObjectLabel(identifier, id, int32(len(label)), gl.Str(label+"\x00"))
}

func bytesPtr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
