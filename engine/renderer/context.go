package renderer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// Camera is what a batch needs from a camera at flush time.
type Camera interface {
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	Resize(width, height int32)
}

type abortHook struct {
	id int
	fn func()
}

// Context is the single place that knows every live GPU resource, the
// window size, the clear colour and the active pipeline. It belongs to the
// render thread and is not safe for concurrent use.
type Context struct {
	device     gpu.Device
	width      int32
	height     int32
	clearColor mgl32.Vec4

	registry *core.HandleTable[Resource]
	shaders  map[string]*Shader
	cameras  []Camera
	pipeline *Pipeline

	resizeListeners []func(width, height int32)
	abortHooks      []abortHook
	nextHook        int
}

func NewContext(device gpu.Device, width, height int32) *Context {
	c := &Context{
		device:     device,
		width:      width,
		height:     height,
		clearColor: mgl32.Vec4{0, 0, 0, 1},
		registry:   core.NewHandleTable[Resource](64),
		shaders:    make(map[string]*Shader),
	}
	device.Viewport(0, 0, width, height)
	device.ClearColor(0, 0, 0, 1)
	return c
}

func (c *Context) Device() gpu.Device {
	return c.device
}

func (c *Context) Size() (int32, int32) {
	return c.width, c.height
}

func (c *Context) SetClearColor(color mgl32.Vec4) {
	c.clearColor = color
	c.device.ClearColor(color[0], color[1], color[2], color[3])
}

func (c *Context) ClearColor() mgl32.Vec4 {
	return c.clearColor
}

// Clear clears whatever framebuffer is bound for drawing.
func (c *Context) Clear(mask gpu.ClearMask) {
	c.device.Clear(mask)
}

func (c *Context) SetPipeline(p *Pipeline) {
	c.pipeline = p
}

func (c *Context) Pipeline() *Pipeline {
	return c.pipeline
}

func (c *Context) RegisterCamera(camera Camera) {
	camera.Resize(c.width, c.height)
	c.cameras = append(c.cameras, camera)
}

func (c *Context) UnregisterCamera(camera Camera) {
	for i, cam := range c.cameras {
		if cam == camera {
			c.cameras = append(c.cameras[:i], c.cameras[i+1:]...)
			return
		}
	}
}

// OnResize registers fn to run after every Resize, once cameras and
// framebuffers have been resized.
func (c *Context) OnResize(fn func(width, height int32)) {
	c.resizeListeners = append(c.resizeListeners, fn)
}

// Resize updates the viewport, every registered camera and every
// framebuffer created with AutoResize, then notifies listeners. It must run
// before the next frame renders.
func (c *Context) Resize(width, height int32) error {
	c.width = width
	c.height = height
	c.device.Viewport(0, 0, width, height)

	for _, camera := range c.cameras {
		camera.Resize(width, height)
	}

	var errs []error
	for _, fb := range c.framebuffers() {
		if !fb.info.AutoResize {
			continue
		}
		if err := fb.Resize(width, height); err != nil {
			errs = append(errs, err)
		}
	}

	for _, fn := range c.resizeListeners {
		fn(width, height)
	}
	return errors.Join(errs...)
}

// GetOrCreateShader returns the shader cached under name, compiling source
// the first time.
func (c *Context) GetOrCreateShader(name, source string) (*Shader, error) {
	if s, ok := c.shaders[name]; ok && s.Alive() {
		return s, nil
	}
	s, err := NewShader(c, name, source)
	if err != nil {
		return nil, err
	}
	c.shaders[name] = s
	return s, nil
}

// Shader returns a cached shader by name.
func (c *Context) Shader(name string) (*Shader, bool) {
	s, ok := c.shaders[name]
	if !ok || !s.Alive() {
		return nil, false
	}
	return s, true
}

// LiveCount returns the number of live resources of a kind.
func (c *Context) LiveCount(kind gpu.ObjectKind) int {
	n := 0
	c.registry.Each(func(_ core.Handle, r Resource) {
		if r.Kind() == kind {
			n++
		}
	})
	return n
}

// Live returns the number of live resources.
func (c *Context) Live() int {
	return c.registry.Len()
}

// Lookup resolves a registry handle.
func (c *Context) Lookup(h core.Handle) (Resource, bool) {
	return c.registry.Get(h)
}

// DestroyAll releases every live resource. Framebuffers and vertex arrays
// go first so the textures and buffers they own are released through them.
func (c *Context) DestroyAll() error {
	l := core.Logger().With("ctx", "render")
	l.Info("disposing objects",
		"framebuffers", c.LiveCount(gpu.ObjectFramebuffer),
		"vertex_arrays", c.LiveCount(gpu.ObjectVertexArray),
		"buffers", c.LiveCount(gpu.ObjectBuffer),
		"shaders", c.LiveCount(gpu.ObjectProgram),
		"textures", c.LiveCount(gpu.ObjectTexture),
	)

	var errs []error
	order := []gpu.ObjectKind{gpu.ObjectFramebuffer, gpu.ObjectVertexArray, gpu.ObjectBuffer, gpu.ObjectProgram, gpu.ObjectTexture}
	for _, kind := range order {
		var batch []Resource
		c.registry.Each(func(_ core.Handle, r Resource) {
			if r.Kind() == kind {
				batch = append(batch, r)
			}
		})
		for _, r := range batch {
			if err := r.Destroy(); err != nil && !errors.Is(err, core.ErrDestroyed) {
				errs = append(errs, fmt.Errorf("destroy %s %q: %w", kind, r.Label(), err))
			}
		}
	}
	clear(c.shaders)
	return errors.Join(errs...)
}

// OnFrameAbort registers fn to run when a pipeline stage fails mid-frame.
// The returned func removes the hook.
func (c *Context) OnFrameAbort(fn func()) func() {
	id := c.nextHook
	c.nextHook++
	c.abortHooks = append(c.abortHooks, abortHook{id: id, fn: fn})
	return func() {
		c.abortHooks = slices.DeleteFunc(c.abortHooks, func(h abortHook) bool { return h.id == id })
	}
}

// abortFrame runs the hooks in registration order.
func (c *Context) abortFrame() {
	for _, h := range slices.Clone(c.abortHooks) {
		h.fn()
	}
}

func (c *Context) register(r Resource) core.Handle {
	return c.registry.Acquire(r)
}

func (c *Context) framebuffers() []*Framebuffer {
	var out []*Framebuffer
	c.registry.Each(func(_ core.Handle, r Resource) {
		if fb, ok := r.(*Framebuffer); ok {
			out = append(out, fb)
		}
	})
	return out
}
