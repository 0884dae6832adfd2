package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrthoCameraProjectionFollowsAspect(t *testing.T) {
	c := NewOrthoCamera(mgl32.Vec2{}, 0)
	assert.Equal(t, DefaultViewSizeX, c.ViewSizeX())

	c.Resize(200, 100)
	assert.InDelta(t, 2.5, c.ViewSizeY(), 1e-6)
	assert.Equal(t, mgl32.Ortho(-5, 5, -2.5, 2.5, 0.1, 100), c.Projection())

	c.Resize(0, 100)
	w, h := c.Size()
	assert.Equal(t, [2]int32{200, 100}, [2]int32{w, h}, "minimized sizes are ignored")

	c.SetViewSizeX(5.005)
	assert.Equal(t, DefaultViewSizeX, c.ViewSizeX(), "tiny zoom changes are ignored")
	c.SetViewSizeX(10)
	assert.InDelta(t, 5, c.ViewSizeY(), 1e-6)
}

func TestOrthoCameraScreenWorldRoundTrip(t *testing.T) {
	c := NewOrthoCamera(mgl32.Vec2{3, -2}, 4)
	c.Resize(800, 400)

	center := c.ScreenToWorld(mgl32.Vec2{400, 200})
	assert.InDelta(t, 3, center.X(), 1e-5)
	assert.InDelta(t, -2, center.Y(), 1e-5)

	topLeft := c.ScreenToWorld(mgl32.Vec2{0, 0})
	assert.InDelta(t, -1, topLeft.X(), 1e-5)
	assert.InDelta(t, 0, topLeft.Y(), 1e-5, "screen y grows downwards")

	for _, p := range []mgl32.Vec2{{0, 0}, {123, 45}, {800, 400}} {
		back := c.WorldToScreen(c.ScreenToWorld(p))
		assert.InDelta(t, p.X(), back.X(), 1e-3)
		assert.InDelta(t, p.Y(), back.Y(), 1e-3)
	}

	px := c.WorldScaleToScreenScale(mgl32.Vec2{1, 1})
	assert.InDelta(t, 100, px.X(), 1e-4)
	assert.InDelta(t, 100, px.Y(), 1e-4)
}

func TestOrthoCameraView(t *testing.T) {
	c := NewOrthoCamera(mgl32.Vec2{}, 5)
	c.SetPosition(mgl32.Vec2{2, 1})
	p := c.View().Mul4x1(mgl32.Vec4{2, 1, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-6)
	assert.InDelta(t, 0, p.Y(), 1e-6)
	assert.InDelta(t, -10, p.Z(), 1e-6)
}

func TestUICamera(t *testing.T) {
	c := NewUICamera()
	c.Resize(640, 480)
	assert.Equal(t, mgl32.Ident4(), c.View())

	topLeft := c.Projection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -1, topLeft.X(), 1e-6)
	assert.InDelta(t, 1, topLeft.Y(), 1e-6)

	c.Resize(-1, 10)
	assert.Equal(t, mgl32.Ortho(0, 640, 480, 0, -1, 1), c.Projection())
}
