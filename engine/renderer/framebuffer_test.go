package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

func TestFramebufferAttachments(t *testing.T) {
	ctx, dev := newTestContext(t)

	info := DefaultFramebufferInfo()
	info.HasStencil = true
	info.AddColorAttachment(PickingAttachment)
	fb, err := NewFramebuffer(ctx, info, "gbuffer")
	require.NoError(t, err)

	require.Equal(t, 3, fb.Targets())
	att := dev.Attachments(fb.ID())
	color0, _ := fb.TargetTexture(0)
	color1, _ := fb.TargetTexture(1)
	depth, _ := fb.TargetTexture(2)
	assert.Equal(t, color0.ID(), att[gpu.ColorAttachment0])
	assert.Equal(t, color1.ID(), att[gpu.ColorAttachment(1)])
	assert.Equal(t, depth.ID(), att[gpu.DepthStencilAttachment])

	assert.Equal(t, gpu.RGBA8, dev.TextureFormat(color0.ID()))
	assert.Equal(t, gpu.R32UI, dev.TextureFormat(color1.ID()))
	assert.Equal(t, gpu.Depth24Stencil8, dev.TextureFormat(depth.ID()))
	assert.Equal(t, gpu.Nearest, color0.Spec().Filter)
	assert.Equal(t, "gbuffer.color1", color1.Label())

	w, h := fb.Size()
	assert.Equal(t, [2]int32{320, 240}, [2]int32{w, h}, "defaults to the context size")
	assert.Zero(t, dev.BoundFramebuffer(gpu.Framebuffer), "construction leaves the default target bound")

	_, err = fb.TargetTexture(3)
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
}

func TestFramebufferResizeReadback(t *testing.T) {
	ctx, dev := newTestContext(t)

	info := DefaultFramebufferInfo()
	info.HasStencil = true
	fb, err := NewFramebuffer(ctx, info, "scene")
	require.NoError(t, err)
	color, err := fb.TargetTexture(0)
	require.NoError(t, err)

	// fill the old allocation so stale content would be visible
	fb.Bind(gpu.Framebuffer)
	dev.ClearColor(1, 0, 0, 1)
	dev.Clear(gpu.ClearColor)
	UnbindFramebuffer(ctx, gpu.Framebuffer)

	require.NoError(t, fb.Resize(800, 600))

	w, h, ok := dev.TextureSize(color.ID())
	require.True(t, ok)
	assert.Equal(t, [2]int32{800, 600}, [2]int32{w, h})
	assert.Equal(t, int32(800), color.Width())

	px, err := ReadPixel[[4]uint8](fb, 799, 599, gpu.RGBA, gpu.UnsignedBytePixel)
	require.NoError(t, err, "the new bounds are readable")
	assert.Equal(t, [4]uint8{}, px, "no pre-resize content survives")

	require.NoError(t, dev.SetPixel(color.ID(), 400, 300, []byte{9, 8, 7, 6}))
	px, err = ReadPixel[[4]uint8](fb, 400, 300, gpu.RGBA, gpu.UnsignedBytePixel)
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{9, 8, 7, 6}, px)

	_, err = ReadPixel[[4]uint8](fb, 800, 0, gpu.RGBA, gpu.UnsignedBytePixel)
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
	_, err = ReadPixel[uint8](fb, 0, 0, gpu.RGBA, gpu.UnsignedBytePixel)
	assert.ErrorIs(t, err, core.ErrOutOfBounds, "result type smaller than a pixel")

	assert.Zero(t, dev.BoundFramebuffer(gpu.ReadFramebuffer), "readback restores the read target")
	assert.Empty(t, dev.Errors())
}

func TestFramebufferPickingReadback(t *testing.T) {
	ctx, dev := newTestContext(t)

	fb, err := NewFramebuffer(ctx, FramebufferInfo{
		ColorAttachments: []ColorAttachmentInfo{PickingAttachment},
		Width:            16,
		Height:           16,
	}, "pick")
	require.NoError(t, err)
	ids, _ := fb.TargetTexture(0)

	fb.Bind(gpu.Framebuffer)
	dev.ClearColor(0, 0, 0, 0)
	dev.Clear(gpu.ClearColor)
	UnbindFramebuffer(ctx, gpu.Framebuffer)
	require.NoError(t, dev.SetPixel(ids.ID(), 3, 4, []byte{0x2a, 0, 0, 0}))

	id, err := ReadPixel[uint32](fb, 3, 4, gpu.RedInteger, gpu.UnsignedIntPixel)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	id, err = ReadPixel[uint32](fb, 0, 0, gpu.RedInteger, gpu.UnsignedIntPixel)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestFramebufferIncompleteFailsFast(t *testing.T) {
	ctx, dev := newTestContext(t)

	_, err := NewFramebuffer(ctx, FramebufferInfo{}, "empty")
	assert.ErrorIs(t, err, core.ErrIncompleteFramebuffer)
	assert.Zero(t, ctx.Live(), "a failed framebuffer releases what it created")
	assert.Zero(t, dev.Live(gpu.ObjectFramebuffer))

	_, err = NewFramebuffer(ctx, FramebufferInfo{HasDepth: true, Width: -1, Height: 10}, "negative")
	assert.ErrorIs(t, err, core.ErrIncompleteFramebuffer)
	assert.Zero(t, ctx.Live())

	fb, err := NewFramebuffer(ctx, DefaultFramebufferInfo(), "ok")
	require.NoError(t, err)
	assert.ErrorIs(t, fb.Resize(0, 10), core.ErrIncompleteFramebuffer)
	w, h := fb.Size()
	assert.Equal(t, [2]int32{320, 240}, [2]int32{w, h}, "a rejected resize keeps the old size")
}

func TestFramebufferResizeKeepsAttachmentsInStep(t *testing.T) {
	ctx, _ := newTestContext(t)

	fb, err := NewFramebuffer(ctx, DefaultFramebufferInfo(), "scene")
	require.NoError(t, err)
	require.Greater(t, fb.Targets(), 1)
	color, err := fb.TargetTexture(0)
	require.NoError(t, err)
	last, err := fb.TargetTexture(fb.Targets() - 1)
	require.NoError(t, err)
	require.NoError(t, last.Destroy())

	assert.ErrorIs(t, fb.Resize(100, 80), core.ErrDestroyed)
	w, h := fb.Size()
	assert.Equal(t, [2]int32{320, 240}, [2]int32{w, h})
	assert.Equal(t, [2]int32{320, 240}, [2]int32{color.Spec().Width, color.Spec().Height}, "no attachment was resized")

	_, err = ReadPixel[[4]uint8](fb, 319, 239, gpu.RGBA, gpu.UnsignedBytePixel)
	assert.NoError(t, err, "reads stay within the storage that exists")
}

func TestFramebufferDestroy(t *testing.T) {
	ctx, dev := newTestContext(t)

	fb, err := NewFramebuffer(ctx, DefaultFramebufferInfo(), "scene")
	require.NoError(t, err)
	color, _ := fb.TargetTexture(0)

	require.NoError(t, fb.Destroy())
	assert.False(t, color.Alive(), "attachments go with the framebuffer")
	assert.Zero(t, dev.Live(gpu.ObjectTexture))
	assert.Zero(t, dev.Live(gpu.ObjectFramebuffer))

	assert.ErrorIs(t, fb.Destroy(), core.ErrDestroyed)
	assert.ErrorIs(t, fb.Resize(10, 10), core.ErrDestroyed)
	_, err = ReadPixel[uint32](fb, 0, 0, gpu.RedInteger, gpu.UnsignedIntPixel)
	assert.ErrorIs(t, err, core.ErrDestroyed)

	fb.Bind(gpu.Framebuffer)
	assert.Zero(t, dev.BoundFramebuffer(gpu.Framebuffer), "bind on a destroyed framebuffer does nothing")
	assert.Empty(t, dev.Errors())
}
