package renderer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// BoundFramebuffer is one framebuffer stack entry.
type BoundFramebuffer struct {
	Framebuffer *Framebuffer
	Target      gpu.FramebufferTarget
}

// StageFunc draws one phase of a frame. It may push and pop framebuffers
// but must leave the stack as it found it.
type StageFunc func(p *Pipeline) error

type Stage struct {
	Name string
	Fn   StageFunc
}

// StageError is a failure of one stage during Render.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("render stage %q: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline owns the framebuffer stack and the ordered render stages. The
// top of the stack is the active framebuffer stages render into.
type Pipeline struct {
	ctx         *Context
	stages      []Stage
	stack       []BoundFramebuffer
	staticCount int
}

// NewPipeline returns a pipeline expecting staticCount framebuffers on the
// stack at the start and end of every Render.
func NewPipeline(ctx *Context, staticCount int, stages ...Stage) *Pipeline {
	return &Pipeline{ctx: ctx, stages: stages, staticCount: staticCount}
}

func (p *Pipeline) Context() *Context {
	return p.ctx
}

// AddStage appends a stage. Stages run in registration order.
func (p *Pipeline) AddStage(name string, fn StageFunc) {
	p.stages = append(p.stages, Stage{Name: name, Fn: fn})
}

func (p *Pipeline) AddStages(stages ...Stage) {
	p.stages = append(p.stages, stages...)
}

func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// StaticFramebufferCount is the stack depth Render expects.
func (p *Pipeline) StaticFramebufferCount() int {
	return p.staticCount
}

func (p *Pipeline) SetStaticFramebufferCount(n int) {
	p.staticCount = n
}

// PushFramebuffer binds fb and pushes it as the active framebuffer.
// PopFramebuffer restores whatever was active before.
func (p *Pipeline) PushFramebuffer(fb *Framebuffer, target gpu.FramebufferTarget) {
	p.stack = append(p.stack, BoundFramebuffer{Framebuffer: fb, Target: target})
	fb.Bind(target)
}

// PushActiveFramebuffer is PushFramebuffer for stages nesting a render
// target inside the active one.
func (p *Pipeline) PushActiveFramebuffer(fb *Framebuffer, target gpu.FramebufferTarget) {
	p.PushFramebuffer(fb, target)
}

// PopFramebuffer removes the active framebuffer and rebinds the one below
// it, or the default framebuffer when the stack becomes empty.
func (p *Pipeline) PopFramebuffer() error {
	if len(p.stack) == 0 {
		return fmt.Errorf("pop framebuffer: %w", core.ErrStackEmpty)
	}
	popped := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if top, ok := p.Active(); ok {
		top.Framebuffer.Bind(top.Target)
	} else {
		UnbindFramebuffer(p.ctx, popped.Target)
	}
	return nil
}

// Active returns the top of the stack.
func (p *Pipeline) Active() (BoundFramebuffer, bool) {
	if len(p.stack) == 0 {
		return BoundFramebuffer{}, false
	}
	return p.stack[len(p.stack)-1], true
}

// Depth is the number of framebuffers on the stack.
func (p *Pipeline) Depth() int {
	return len(p.stack)
}

// PreparePresentationBuffer binds the window framebuffer and clears it with
// the context clear colour. It runs once per frame before Render.
func (p *Pipeline) PreparePresentationBuffer() {
	UnbindFramebuffer(p.ctx, gpu.Framebuffer)
	c := p.ctx.clearColor
	p.ctx.device.ClearColor(c[0], c[1], c[2], c[3])
	p.ctx.device.Clear(gpu.ClearAll)
}

// Render runs every stage in order. A stage that fails, or that leaves the
// stack different from how it found it, has its stack restored and the
// context's frame-abort hooks run; the remaining stages still run. The
// returned error joins every StageError of the frame.
func (p *Pipeline) Render() error {
	if len(p.stack) != p.staticCount {
		err := fmt.Errorf("framebuffer stack holds %d entries at frame start, expected %d: %w", len(p.stack), p.staticCount, core.ErrStackImbalance)
		core.LogError("render: %s", err)
		return err
	}

	p.bindActive()
	var errs []error
	for _, stage := range p.stages {
		snapshot := slices.Clone(p.stack)
		err := stage.Fn(p)
		if err == nil && !slices.Equal(snapshot, p.stack) {
			err = fmt.Errorf("stack depth %d after stage, %d before: %w", len(p.stack), len(snapshot), core.ErrStackImbalance)
		}
		if err == nil {
			continue
		}

		serr := &StageError{Stage: stage.Name, Err: err}
		core.LogError("%s", serr)
		errs = append(errs, serr)
		p.stack = snapshot
		p.bindActive()
		p.ctx.abortFrame()
	}
	UnbindFramebuffer(p.ctx, gpu.Framebuffer)
	return errors.Join(errs...)
}

func (p *Pipeline) bindActive() {
	if top, ok := p.Active(); ok {
		top.Framebuffer.Bind(top.Target)
	} else {
		UnbindFramebuffer(p.ctx, gpu.Framebuffer)
	}
}

// DefaultPipeline has a single stage that calls OnRender.
type DefaultPipeline struct {
	*Pipeline
	OnRender StageFunc
}

func NewDefaultPipeline(ctx *Context) *DefaultPipeline {
	dp := &DefaultPipeline{}
	dp.Pipeline = NewPipeline(ctx, 0, Stage{Name: "default", Fn: dp.renderDefaultStage})
	return dp
}

func (dp *DefaultPipeline) renderDefaultStage(p *Pipeline) error {
	if dp.OnRender == nil {
		return nil
	}
	return dp.OnRender(p)
}
