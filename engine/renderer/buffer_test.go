package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

func TestVertexLayoutOffsets(t *testing.T) {
	l := NewVertexLayout()
	PushAttribute[mgl32.Vec3](l, 1, false)
	PushAttribute[mgl32.Vec4](l, 1, false)
	PushAttribute[mgl32.Vec2](l, 1, false)
	PushAttribute[uint8](l, 4, true)
	PushAttribute[int32](l, 1, false)

	attrs := l.Attributes()
	require.Len(t, attrs, 5)
	assert.Equal(t, []int{0, 12, 28, 36, 40}, []int{attrs[0].Offset, attrs[1].Offset, attrs[2].Offset, attrs[3].Offset, attrs[4].Offset})
	assert.Equal(t, 44, l.Stride())

	assert.Equal(t, int32(4), attrs[3].Components)
	assert.Equal(t, gpu.UnsignedByte, attrs[3].Scalar)
	assert.False(t, attrs[3].Integer(), "normalized bytes feed a float input")
	assert.True(t, attrs[4].Integer())
	assert.False(t, attrs[0].Integer())
	for i, a := range attrs {
		assert.Equal(t, uint32(i), a.Index)
	}
}

func TestVertexLayoutPrefixSum(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	push := []func(*VertexLayout, int32){
		func(l *VertexLayout, n int32) { PushAttribute[float32](l, n, false) },
		func(l *VertexLayout, n int32) { PushAttribute[mgl32.Vec2](l, n, false) },
		func(l *VertexLayout, n int32) { PushAttribute[mgl32.Vec4](l, n, false) },
		func(l *VertexLayout, n int32) { PushAttribute[uint16](l, n, true) },
		func(l *VertexLayout, n int32) { PushAttribute[float64](l, n, false) },
		func(l *VertexLayout, n int32) { PushAttribute[int8](l, n, false) },
	}

	for run := 0; run < 100; run++ {
		l := NewVertexLayout()
		for i := 0; i < 1+r.Intn(8); i++ {
			push[r.Intn(len(push))](l, int32(1+r.Intn(3)))
		}
		sum := 0
		for _, a := range l.Attributes() {
			require.Equal(t, sum, a.Offset)
			sum += a.Size()
		}
		require.Equal(t, sum, l.Stride())
	}
}

func TestBufferData(t *testing.T) {
	ctx, dev := newTestContext(t)

	b := NewBuffer(ctx, gpu.ArrayBuffer, "positions")
	require.NoError(t, BufferData(b, []float32{1, 2, 3}, gpu.StaticDraw))
	assert.Equal(t, 12, b.Size())

	data, ok := dev.BufferContents(b.ID())
	require.True(t, ok)
	assert.Len(t, data, 12)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(data[4:])))

	require.NoError(t, BufferDataN(b, []uint32{7, 8, 9, 10}, 2, gpu.DynamicDraw))
	data, _ = dev.BufferContents(b.ID())
	assert.Equal(t, []byte{7, 0, 0, 0, 8, 0, 0, 0}, data)
	assert.Equal(t, gpu.DynamicDraw, dev.BufferUsage(b.ID()))

	err := BufferDataN(b, []uint32{1}, 2, gpu.DynamicDraw)
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
	assert.Equal(t, "positions", dev.LabelOf(gpu.ObjectBuffer, b.ID()))
}

func TestBufferSubData(t *testing.T) {
	ctx, dev := newTestContext(t)

	b := NewBuffer(ctx, gpu.ElementArrayBuffer, "indices")
	require.NoError(t, b.Allocate(16, gpu.DynamicDraw))
	require.NoError(t, BufferSubData(b, []uint32{5, 6}, 2))

	data, _ := dev.BufferContents(b.ID())
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(data[8:]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(data[12:]))

	assert.ErrorIs(t, BufferSubData(b, []uint32{1, 2}, 3), core.ErrOutOfBounds)
	assert.ErrorIs(t, BufferSubData(b, []uint32{1}, -1), core.ErrOutOfBounds)
	assert.Empty(t, dev.Errors(), "rejected writes never reach the device")
}

func TestBufferDestroy(t *testing.T) {
	ctx, dev := newTestContext(t)

	b := NewBuffer(ctx, gpu.ArrayBuffer, "")
	assert.NotEmpty(t, b.Label(), "unlabelled objects get a generated label")
	require.NoError(t, b.Destroy())
	assert.Zero(t, dev.Live(gpu.ObjectBuffer))

	assert.ErrorIs(t, b.Destroy(), core.ErrDestroyed)
	assert.ErrorIs(t, BufferData(b, []float32{1}, gpu.StaticDraw), core.ErrDestroyed)
	assert.ErrorIs(t, b.Allocate(4, gpu.StaticDraw), core.ErrDestroyed)
	assert.Empty(t, dev.Errors(), "the native buffer is deleted once")
}

func TestVertexArrayAppliesLayout(t *testing.T) {
	ctx, dev := newTestContext(t)

	l := NewVertexLayout()
	PushAttribute[mgl32.Vec3](l, 1, false)
	PushAttribute[uint32](l, 1, false)
	va := NewVertexArray(ctx, l, "mesh")

	attribs := dev.VertexAttribs(va.ID())
	require.Len(t, attribs, 2)
	assert.Equal(t, int32(3), attribs[0].Components)
	assert.Equal(t, gpu.Float, attribs[0].Kind)
	assert.False(t, attribs[0].Integer)
	assert.Equal(t, int32(16), attribs[0].Stride)
	assert.Equal(t, 0, attribs[0].Offset)
	assert.Equal(t, va.VertexBuffer().ID(), attribs[0].Buffer)
	assert.True(t, attribs[0].Enabled)

	assert.True(t, attribs[1].Integer)
	assert.Equal(t, 12, attribs[1].Offset)

	assert.Equal(t, "mesh.vertex_buffer", dev.LabelOf(gpu.ObjectBuffer, va.VertexBuffer().ID()))
	assert.Equal(t, "mesh.index_buffer", dev.LabelOf(gpu.ObjectBuffer, va.IndexBuffer().ID()))
	assert.Zero(t, dev.CurrentVertexArray(), "construction leaves no vertex array bound")

	va.SetLabel("terrain")
	assert.Equal(t, "terrain.index_buffer", dev.LabelOf(gpu.ObjectBuffer, va.IndexBuffer().ID()))
}

func TestVertexArrayDraw(t *testing.T) {
	ctx, dev := newTestContext(t)

	l := NewVertexLayout()
	PushAttribute[mgl32.Vec2](l, 1, false)
	va := NewVertexArray(ctx, l, "quad")
	shader, err := NewShader(ctx, "test", testShaderSource)
	require.NoError(t, err)

	va.Bind()
	require.NoError(t, BufferData(va.VertexBuffer(), []mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, gpu.StaticDraw))
	require.NoError(t, BufferData(va.IndexBuffer(), []uint32{0, 1, 2, 0, 2, 3}, gpu.StaticDraw))
	shader.Bind()
	va.DrawElements(gpu.Triangles, 6)
	va.Unbind()

	draws := dev.DrawCalls()
	require.Len(t, draws, 1)
	assert.Equal(t, int32(6), draws[0].Count)
	assert.Equal(t, va.ID(), draws[0].VertexArray)
	assert.Equal(t, shader.ID(), draws[0].Program)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, draws[0].Indices)
	assert.Empty(t, dev.Errors())

	require.NoError(t, va.Destroy())
	assert.Zero(t, dev.Live(gpu.ObjectVertexArray))
	assert.Zero(t, dev.Live(gpu.ObjectBuffer))
	assert.ErrorIs(t, va.Destroy(), core.ErrDestroyed)
}
