package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

type Buffer struct {
	Object
	target gpu.BufferTarget
	size   int
}

func NewBuffer(ctx *Context, target gpu.BufferTarget, label string) *Buffer {
	b := &Buffer{target: target}
	b.init(ctx, gpu.ObjectBuffer, ctx.device.CreateBuffer(), b, label)
	return b
}

func (b *Buffer) Target() gpu.BufferTarget {
	return b.target
}

// Size is the allocated storage in bytes.
func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Bind() {
	if err := b.check(); err != nil {
		core.LogError("bind: %s", err)
		return
	}
	b.ctx.device.BindBuffer(b.target, b.id)
}

func (b *Buffer) Unbind() {
	b.ctx.device.BindBuffer(b.target, 0)
}

// Allocate reserves size bytes of storage without uploading anything.
func (b *Buffer) Allocate(size int, usage gpu.UsageHint) error {
	if err := b.check(); err != nil {
		return err
	}
	b.Bind()
	b.ctx.device.BufferData(b.target, size, nil, usage)
	b.size = size
	return nil
}

func (b *Buffer) Destroy() error {
	if err := b.release(); err != nil {
		return err
	}
	b.ctx.device.DeleteBuffer(b.id)
	return nil
}

// BufferData replaces the contents of b with all of data. The buffer is left bound.
func BufferData[T any](b *Buffer, data []T, usage gpu.UsageHint) error {
	return BufferDataN(b, data, len(data), usage)
}

// BufferDataN replaces the contents of b with the first count elements of data.
func BufferDataN[T any](b *Buffer, data []T, count int, usage gpu.UsageHint) error {
	if err := b.check(); err != nil {
		return err
	}
	if count < 0 || count > len(data) {
		return fmt.Errorf("buffer %q: upload of %d elements from %d: %w", b.label, count, len(data), core.ErrOutOfBounds)
	}
	raw := asBytes(data[:count])
	b.Bind()
	b.ctx.device.BufferData(b.target, len(raw), raw, usage)
	b.size = len(raw)
	return nil
}

// BufferSubData writes data at element offset into the existing allocation.
// The write must fit the allocation made by BufferData or Allocate. The
// buffer is bound explicitly and left bound.
func BufferSubData[T any](b *Buffer, data []T, offset int) error {
	if err := b.check(); err != nil {
		return err
	}
	raw := asBytes(data)
	byteOffset := offset * elemSize[T]()
	if offset < 0 || byteOffset+len(raw) > b.size {
		return fmt.Errorf("buffer %q: write [%d:%d] outside %d bytes: %w", b.label, byteOffset, byteOffset+len(raw), b.size, core.ErrOutOfBounds)
	}
	b.Bind()
	b.ctx.device.BufferSubData(b.target, byteOffset, raw)
	return nil
}

func elemSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// asBytes reinterprets a slice of plain vertex or index records as bytes.
// T must not contain pointers.
func asBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*elemSize[T]())
}
