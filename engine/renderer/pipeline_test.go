package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

func newTestFramebuffers(t *testing.T, ctx *Context, labels ...string) []*Framebuffer {
	t.Helper()
	out := make([]*Framebuffer, 0, len(labels))
	for _, label := range labels {
		fb, err := NewFramebuffer(ctx, DefaultFramebufferInfo(), label)
		require.NoError(t, err)
		out = append(out, fb)
	}
	return out
}

func TestPipelinePushPop(t *testing.T) {
	ctx, dev := newTestContext(t)
	fbs := newTestFramebuffers(t, ctx, "f1", "f2")
	f1, f2 := fbs[0], fbs[1]
	p := NewPipeline(ctx, 0)

	p.PushFramebuffer(f1, gpu.Framebuffer)
	p.PushActiveFramebuffer(f2, gpu.Framebuffer)
	assert.Equal(t, 2, p.Depth())
	assert.Equal(t, f2.ID(), dev.BoundFramebuffer(gpu.DrawFramebuffer))

	require.NoError(t, p.PopFramebuffer())
	top, ok := p.Active()
	require.True(t, ok)
	assert.Same(t, f1, top.Framebuffer)
	assert.Equal(t, f1.ID(), dev.BoundFramebuffer(gpu.DrawFramebuffer))

	require.NoError(t, p.PopFramebuffer())
	_, ok = p.Active()
	assert.False(t, ok)
	assert.Zero(t, dev.BoundFramebuffer(gpu.DrawFramebuffer), "default target bound")
	assert.Zero(t, dev.BoundFramebuffer(gpu.ReadFramebuffer))

	assert.ErrorIs(t, p.PopFramebuffer(), core.ErrStackEmpty)
}

func TestPipelinePushPopIsLIFO(t *testing.T) {
	ctx, dev := newTestContext(t)
	fbs := newTestFramebuffers(t, ctx, "a", "b", "c")
	p := NewPipeline(ctx, 0)

	pushes := []struct {
		fb     *Framebuffer
		target gpu.FramebufferTarget
		active bool
	}{
		{fbs[0], gpu.Framebuffer, true},
		{fbs[1], gpu.DrawFramebuffer, false},
		{fbs[2], gpu.Framebuffer, true},
		{fbs[0], gpu.ReadFramebuffer, false},
	}
	var before []BoundFramebuffer
	for _, push := range pushes {
		top, _ := p.Active()
		before = append(before, top)
		if push.active {
			p.PushActiveFramebuffer(push.fb, push.target)
		} else {
			p.PushFramebuffer(push.fb, push.target)
		}
		top, _ = p.Active()
		assert.Equal(t, BoundFramebuffer{Framebuffer: push.fb, Target: push.target}, top)
	}
	assert.Equal(t, len(pushes), p.Depth())

	for i := len(pushes) - 1; i >= 0; i-- {
		require.NoError(t, p.PopFramebuffer())
		top, ok := p.Active()
		assert.Equal(t, before[i], top, "pop %d restores the entry below", i)
		if ok {
			assert.Equal(t, top.Framebuffer.ID(), dev.BoundFramebuffer(top.Target))
		}
	}
	assert.Zero(t, p.Depth())
	assert.Zero(t, dev.BoundFramebuffer(gpu.DrawFramebuffer))
}

func TestPipelineRenderOrder(t *testing.T) {
	ctx, dev := newTestContext(t)
	fbs := newTestFramebuffers(t, ctx, "scene", "overlay")
	p := NewPipeline(ctx, 1)
	p.PushFramebuffer(fbs[0], gpu.Framebuffer)

	var order []string
	var boundInSecond uint32
	p.AddStage("first", func(p *Pipeline) error {
		order = append(order, "first")
		p.PushActiveFramebuffer(fbs[1], gpu.Framebuffer)
		return p.PopFramebuffer()
	})
	p.AddStages(Stage{Name: "second", Fn: func(p *Pipeline) error {
		order = append(order, "second")
		boundInSecond = dev.BoundFramebuffer(gpu.DrawFramebuffer)
		return nil
	}})

	require.NoError(t, p.Render())
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, fbs[0].ID(), boundInSecond, "stages start on the static framebuffer")
	assert.Equal(t, 1, p.Depth())
	assert.Zero(t, dev.BoundFramebuffer(gpu.Framebuffer), "render ends on the default target")
}

func TestPipelineRenderRecoversFromFailedStage(t *testing.T) {
	ctx, dev := newTestContext(t)
	fbs := newTestFramebuffers(t, ctx, "scene", "leaked")
	p := NewPipeline(ctx, 1)
	p.PushFramebuffer(fbs[0], gpu.Framebuffer)

	aborts := 0
	ctx.OnFrameAbort(func() { aborts++ })

	boom := errors.New("boom")
	var boundInLast uint32
	ran := false
	p.AddStage("leaks", func(p *Pipeline) error {
		p.PushActiveFramebuffer(fbs[1], gpu.Framebuffer)
		return nil
	})
	p.AddStage("fails", func(p *Pipeline) error {
		p.PushActiveFramebuffer(fbs[1], gpu.Framebuffer)
		return boom
	})
	p.AddStage("last", func(p *Pipeline) error {
		ran = true
		boundInLast = dev.BoundFramebuffer(gpu.DrawFramebuffer)
		return nil
	})

	err := p.Render()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStackImbalance)
	assert.ErrorIs(t, err, boom)

	var serr *StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "leaks", serr.Stage)

	assert.True(t, ran, "later stages still run")
	assert.Equal(t, fbs[0].ID(), boundInLast, "the stack is restored before the next stage")
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, 2, aborts)

	// the faulty stages misbehave again, but the frame still starts balanced
	err = p.Render()
	require.Error(t, err)
	var stages []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		require.True(t, errors.As(e, &serr))
		stages = append(stages, serr.Stage)
	}
	assert.Equal(t, []string{"leaks", "fails"}, stages)
	assert.Equal(t, 1, p.Depth())
	assert.Equal(t, 4, aborts)

	p.stages = p.stages[2:]
	require.NoError(t, p.Render(), "a clean frame once the faulty stages are gone")
	assert.Equal(t, 4, aborts)
}

func TestPipelineRenderChecksStaticDepth(t *testing.T) {
	ctx, _ := newTestContext(t)
	p := NewPipeline(ctx, 1)

	ran := false
	p.AddStage("never", func(*Pipeline) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, p.Render(), core.ErrStackImbalance)
	assert.False(t, ran)

	p.SetStaticFramebufferCount(0)
	require.NoError(t, p.Render())
	assert.True(t, ran)
}

func TestPreparePresentationBuffer(t *testing.T) {
	ctx, dev := newTestContext(t)
	fb := newTestFramebuffers(t, ctx, "scene")[0]
	p := NewPipeline(ctx, 0)
	p.PushFramebuffer(fb, gpu.Framebuffer)

	p.PreparePresentationBuffer()
	assert.Zero(t, dev.BoundFramebuffer(gpu.Framebuffer))
	clears := dev.Clears()
	require.NotEmpty(t, clears)
	assert.Equal(t, gpu.ClearAll, clears[len(clears)-1])
}

func TestDefaultPipeline(t *testing.T) {
	ctx, _ := newTestContext(t)
	dp := NewDefaultPipeline(ctx)
	require.NoError(t, dp.Render(), "no callback is fine")

	calls := 0
	dp.OnRender = func(*Pipeline) error {
		calls++
		return nil
	}
	require.NoError(t, dp.Render())
	assert.Equal(t, 1, calls)
	require.Len(t, dp.Stages(), 1)
	assert.Equal(t, "default", dp.Stages()[0].Name)
}
