package components

import (
	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Half of the visible world width of a new OrthoCamera. */
const DefaultViewSizeX float32 = 5

/**
 * @brief A 2D orthographic camera looking down -Z. The visible width is
 * 2*ViewSizeX world units; the height follows the window aspect ratio.
 * View and projection are rebuilt lazily when marked dirty.
 */
type OrthoCamera struct {
	position  mgl32.Vec2
	viewSizeX float32
	viewSizeY float32

	width, height int32

	view            mgl32.Mat4
	projection      mgl32.Mat4
	viewDirty       bool
	projectionDirty bool
}

func NewOrthoCamera(position mgl32.Vec2, viewSizeX float32) *OrthoCamera {
	if viewSizeX <= 0 {
		viewSizeX = DefaultViewSizeX
	}
	return &OrthoCamera{
		position:        position,
		viewSizeX:       viewSizeX,
		width:           1,
		height:          1,
		viewDirty:       true,
		projectionDirty: true,
	}
}

func (c *OrthoCamera) Position() mgl32.Vec2 {
	return c.position
}

func (c *OrthoCamera) SetPosition(position mgl32.Vec2) {
	if position == c.position {
		return
	}
	c.position = position
	c.viewDirty = true
}

func (c *OrthoCamera) ViewSizeX() float32 {
	return c.viewSizeX
}

// SetViewSizeX ignores changes smaller than 0.01.
func (c *OrthoCamera) SetViewSizeX(size float32) {
	if mgl32.Abs(size-c.viewSizeX) < 0.01 {
		return
	}
	c.viewSizeX = size
	c.projectionDirty = true
}

// ViewSizeY is half of the visible world height.
func (c *OrthoCamera) ViewSizeY() float32 {
	c.rebuild()
	return c.viewSizeY
}

func (c *OrthoCamera) Size() (int32, int32) {
	return c.width, c.height
}

// Resize is called by the render context when the window changes size.
func (c *OrthoCamera) Resize(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.projectionDirty = true
}

func (c *OrthoCamera) View() mgl32.Mat4 {
	c.rebuild()
	return c.view
}

func (c *OrthoCamera) Projection() mgl32.Mat4 {
	c.rebuild()
	return c.projection
}

func (c *OrthoCamera) rebuild() {
	if c.viewDirty {
		eye := mgl32.Vec3{c.position.X(), c.position.Y(), 10}
		center := mgl32.Vec3{c.position.X(), c.position.Y(), 0}
		c.view = mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
		c.viewDirty = false
	}
	if c.projectionDirty {
		w := c.viewSizeX * 2
		h := w * float32(c.height) / float32(c.width)
		c.viewSizeY = h / 2
		c.projection = mgl32.Ortho(-w/2, w/2, -h/2, h/2, 0.1, 100)
		c.projectionDirty = false
	}
}

// ScreenToWorld maps a window pixel (origin top-left) to world space.
func (c *OrthoCamera) ScreenToWorld(screen mgl32.Vec2) mgl32.Vec2 {
	c.rebuild()
	nx := screen.X()/float32(c.width)*2 - 1
	ny := screen.Y()/float32(c.height)*2 - 1
	return c.position.Add(mgl32.Vec2{c.viewSizeX * nx, -c.viewSizeY * ny})
}

// WorldToScreen maps a world point to a window pixel (origin top-left).
func (c *OrthoCamera) WorldToScreen(world mgl32.Vec2) mgl32.Vec2 {
	c.rebuild()
	nx := (world.X() - c.position.X()) / c.viewSizeX
	ny := (world.Y() - c.position.Y()) / -c.viewSizeY
	return mgl32.Vec2{(nx + 1) / 2 * float32(c.width), (ny + 1) / 2 * float32(c.height)}
}

// WorldScaleToScreenScale converts a world-space extent to pixels.
func (c *OrthoCamera) WorldScaleToScreenScale(scale mgl32.Vec2) mgl32.Vec2 {
	c.rebuild()
	return mgl32.Vec2{
		scale.X() / (c.viewSizeX * 2) * float32(c.width),
		scale.Y() / (c.viewSizeY * 2) * float32(c.height),
	}
}

/**
 * @brief A pixel-space camera for UI: (0,0) is the top-left corner of the
 * window and one unit is one pixel.
 */
type UICamera struct {
	width, height int32
	projection    mgl32.Mat4
}

func NewUICamera() *UICamera {
	c := &UICamera{}
	c.Resize(1, 1)
	return c
}

func (c *UICamera) Resize(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.projection = mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
}

func (c *UICamera) View() mgl32.Mat4 {
	return mgl32.Ident4()
}

func (c *UICamera) Projection() mgl32.Mat4 {
	return c.projection
}
