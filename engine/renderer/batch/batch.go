// Package batch accumulates quads on the CPU and submits them as one
// indexed draw per flush.
package batch

import (
	"fmt"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

type State uint8

const (
	Uninitialized State = iota
	Idle
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	}
	return "uninitialized"
}

type Config struct {
	MaxVertices uint32
	MaxIndices  uint32
}

func DefaultConfig() Config {
	return Config{MaxVertices: 400, MaxIndices: 600}
}

// Hooks let a concrete batch take part in Flush. All are optional.
type Hooks struct {
	// BindShaderData uploads extra uniforms after the camera matrices.
	BindShaderData func(shader *renderer.Shader) error
	// BindResources binds textures before the draw.
	BindResources func() error
	// Reset runs after every flush and abort, once the counts are zero.
	Reset func()
}

type Stats struct {
	Flushes   int
	DrawCalls int
	Vertices  int
	Indices   int
}

// Batch is the shared state machine and storage of every batch.
// Uninitialized -> Idle (Initialize) -> Active (Begin) -> Idle (End).
type Batch[V any] struct {
	ctx          *renderer.Context
	name         string
	shaderSource string
	layout       *renderer.VertexLayout
	cfg          Config
	hooks        Hooks

	state  State
	shader *renderer.Shader
	va     *renderer.VertexArray
	camera renderer.Camera

	vertices    []V
	indices     []uint32
	vertexCount uint32
	indexCount  uint32

	stats       Stats
	cancelAbort func()
}

// New sets up the CPU side of a batch. shaderName keys the context shader
// cache. Nothing touches the device until Initialize.
func New[V any](ctx *renderer.Context, cfg Config, shaderName, shaderSource string, layout *renderer.VertexLayout, hooks Hooks) *Batch[V] {
	return &Batch[V]{
		ctx:          ctx,
		name:         shaderName,
		shaderSource: shaderSource,
		layout:       layout,
		cfg:          cfg,
		hooks:        hooks,
		vertices:     make([]V, cfg.MaxVertices),
		indices:      make([]uint32, cfg.MaxIndices),
	}
}

// Initialize resolves the shader and creates the vertex array. Calling it
// again is a no-op.
func (b *Batch[V]) Initialize() error {
	if b.state != Uninitialized {
		return nil
	}
	shader, err := b.ctx.GetOrCreateShader(b.name, b.shaderSource)
	if err != nil {
		return fmt.Errorf("batch %s: %w", b.name, err)
	}
	b.shader = shader
	b.va = renderer.NewVertexArray(b.ctx, b.layout, b.name)
	b.cancelAbort = b.ctx.OnFrameAbort(b.Abort)
	b.state = Idle
	return nil
}

// Begin starts a scope drawing with camera.
func (b *Batch[V]) Begin(camera renderer.Camera) error {
	switch b.state {
	case Uninitialized:
		return fmt.Errorf("batch %s begin: %w", b.name, core.ErrBatchUninitialized)
	case Active:
		return fmt.Errorf("batch %s begin: %w", b.name, core.ErrBatchActive)
	}
	if camera == nil {
		return fmt.Errorf("batch %s begin: %w", b.name, core.ErrNoCamera)
	}
	b.camera = camera
	b.state = Active
	return nil
}

// End flushes what is left and closes the scope. The batch is Idle
// afterwards even when the flush fails.
func (b *Batch[V]) End() error {
	switch b.state {
	case Uninitialized:
		return fmt.Errorf("batch %s end: %w", b.name, core.ErrBatchUninitialized)
	case Idle:
		return fmt.Errorf("batch %s end: %w", b.name, core.ErrBatchNotActive)
	}
	err := b.Flush()
	b.camera = nil
	b.state = Idle
	return err
}

// VerifySpace guarantees room for a draw of v vertices and i indices by
// flushing when either capacity would be exceeded. A draw larger than the
// whole batch is rejected without touching it.
func (b *Batch[V]) VerifySpace(v, i uint32) error {
	if b.state != Active {
		return fmt.Errorf("batch %s draw: %w", b.name, core.ErrBatchNotActive)
	}
	if v > b.cfg.MaxVertices || i > b.cfg.MaxIndices {
		return fmt.Errorf("batch %s: draw of %d vertices/%d indices exceeds %d/%d: %w",
			b.name, v, i, b.cfg.MaxVertices, b.cfg.MaxIndices, core.ErrCapacityExceeded)
	}
	if b.vertexCount+v > b.cfg.MaxVertices || b.indexCount+i > b.cfg.MaxIndices {
		return b.Flush()
	}
	return nil
}

// IncrementCounts commits geometry written past the current counts.
func (b *Batch[V]) IncrementCounts(v, i uint32) {
	b.vertexCount += v
	b.indexCount += i
}

// writeQuad writes the six indices of a quad and returns its four vertex
// slots. The caller must have called VerifySpace(4, 6).
func (b *Batch[V]) writeQuad() []V {
	base := b.vertexCount
	idx := b.indices[b.indexCount : b.indexCount+6]
	idx[0], idx[1], idx[2] = base+0, base+1, base+2
	idx[3], idx[4], idx[5] = base+0, base+2, base+3
	return b.vertices[base : base+4]
}

// Flush uploads the pending geometry and issues one draw covering it. It
// is the only place a batch changes device state.
func (b *Batch[V]) Flush() error {
	if b.state != Active {
		return fmt.Errorf("batch %s flush: %w", b.name, core.ErrBatchNotActive)
	}
	if b.indexCount == 0 {
		b.reset()
		return nil
	}
	err := b.submit()
	b.stats.Flushes++
	b.reset()
	return err
}

func (b *Batch[V]) submit() error {
	b.va.Bind()
	defer b.va.Unbind()

	if err := renderer.BufferDataN(b.va.VertexBuffer(), b.vertices, int(b.vertexCount), gpu.DynamicDraw); err != nil {
		return err
	}
	if err := renderer.BufferDataN(b.va.IndexBuffer(), b.indices, int(b.indexCount), gpu.DynamicDraw); err != nil {
		return err
	}

	b.shader.Bind()
	if err := b.shader.SetMat4("uProjection", b.camera.Projection()); err != nil {
		return err
	}
	if err := b.shader.SetMat4("uView", b.camera.View()); err != nil {
		return err
	}
	if b.hooks.BindShaderData != nil {
		if err := b.hooks.BindShaderData(b.shader); err != nil {
			return err
		}
	}
	if b.hooks.BindResources != nil {
		if err := b.hooks.BindResources(); err != nil {
			return err
		}
	}

	b.va.DrawElements(gpu.Triangles, int32(b.indexCount))
	b.stats.DrawCalls++
	b.stats.Vertices += int(b.vertexCount)
	b.stats.Indices += int(b.indexCount)
	return nil
}

func (b *Batch[V]) reset() {
	b.vertexCount = 0
	b.indexCount = 0
	if b.hooks.Reset != nil {
		b.hooks.Reset()
	}
}

// Abort drops pending geometry and leaves the scope without drawing. The
// pipeline calls it through the context when a stage fails mid-frame.
func (b *Batch[V]) Abort() {
	if b.state != Active {
		return
	}
	core.LogWarn("batch %s: dropping %d pending vertices", b.name, b.vertexCount)
	b.reset()
	b.camera = nil
	b.state = Idle
}

func (b *Batch[V]) State() State {
	return b.state
}

func (b *Batch[V]) Config() Config {
	return b.cfg
}

func (b *Batch[V]) VertexCount() uint32 {
	return b.vertexCount
}

func (b *Batch[V]) IndexCount() uint32 {
	return b.indexCount
}

func (b *Batch[V]) Shader() *renderer.Shader {
	return b.shader
}

func (b *Batch[V]) VertexArray() *renderer.VertexArray {
	return b.va
}

func (b *Batch[V]) Stats() Stats {
	return b.stats
}

func (b *Batch[V]) ResetStats() {
	b.stats = Stats{}
}

// Destroy releases the vertex array. The shader stays in the context cache.
func (b *Batch[V]) Destroy() error {
	if b.state == Uninitialized {
		return nil
	}
	if b.cancelAbort != nil {
		b.cancelAbort()
	}
	b.state = Uninitialized
	return b.va.Destroy()
}
