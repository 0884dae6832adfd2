package renderer

import (
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// VertexArray owns a vertex buffer, an index buffer and the layout that was
// applied to them at construction.
type VertexArray struct {
	Object
	vertices *Buffer
	indices  *Buffer
	layout   *VertexLayout
}

func NewVertexArray(ctx *Context, layout *VertexLayout, label string) *VertexArray {
	dev := ctx.device
	va := &VertexArray{layout: layout}
	va.init(ctx, gpu.ObjectVertexArray, dev.CreateVertexArray(), va, label)
	dev.BindVertexArray(va.id)

	va.vertices = NewBuffer(ctx, gpu.ArrayBuffer, va.label+".vertex_buffer")
	va.indices = NewBuffer(ctx, gpu.ElementArrayBuffer, va.label+".index_buffer")

	va.vertices.Bind()
	stride := int32(layout.Stride())
	for _, a := range layout.Attributes() {
		if a.Integer() {
			dev.VertexAttribIPointer(a.Index, a.Components, a.Scalar, stride, a.Offset)
		} else {
			dev.VertexAttribPointer(a.Index, a.Components, a.Scalar, a.Normalized, stride, a.Offset)
		}
		dev.EnableVertexAttribArray(a.Index)
	}
	// the element binding is recorded in the vertex array
	va.indices.Bind()

	dev.BindVertexArray(0)
	return va
}

func (va *VertexArray) VertexBuffer() *Buffer {
	return va.vertices
}

func (va *VertexArray) IndexBuffer() *Buffer {
	return va.indices
}

func (va *VertexArray) Layout() *VertexLayout {
	return va.layout
}

func (va *VertexArray) Bind() {
	if err := va.check(); err != nil {
		core.LogError("bind: %s", err)
		return
	}
	va.ctx.device.BindVertexArray(va.id)
}

func (va *VertexArray) Unbind() {
	va.ctx.device.BindVertexArray(0)
}

// DrawElements issues an indexed draw of count uint32 indices from the
// index buffer. The vertex array must be bound.
func (va *VertexArray) DrawElements(mode gpu.Primitive, count int32) {
	va.ctx.device.DrawElements(mode, count, gpu.UnsignedInt, 0)
}

// Destroy deletes the vertex array and both owned buffers.
func (va *VertexArray) Destroy() error {
	if err := va.release(); err != nil {
		return err
	}
	va.ctx.device.DeleteVertexArray(va.id)
	// the buffers may already be gone if they were destroyed directly
	_ = va.vertices.Destroy()
	_ = va.indices.Destroy()
	return nil
}

// SetLabel renames the vertex array and its buffers.
func (va *VertexArray) SetLabel(label string) {
	if label == "" {
		return
	}
	va.Object.SetLabel(label)
	if va.vertices != nil {
		va.vertices.SetLabel(label + ".vertex_buffer")
		va.indices.SetLabel(label + ".index_buffer")
	}
}
