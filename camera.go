package thicket

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX, tweenY *gween.Tween
	doneX, doneY   bool
}

// Camera maps scene space onto a screen viewport. The scene's first camera
// is its default camera; skeleton culling only runs while drawing through it.
type Camera struct {
	// X and Y are the scene-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1 = no zoom).
	Zoom float64
	// Rotation is the camera rotation in radians.
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect
	// CullEnabled lets renderers skip content outside Viewport.
	CullEnabled bool

	followTarget *Node
	followLerp   float64

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool

	scroll *scrollAnim
}

// newCamera creates a camera centered on the viewport with culling enabled.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		X:           viewport.X + viewport.Width/2,
		Y:           viewport.Y + viewport.Height/2,
		Zoom:        1,
		Viewport:    viewport,
		CullEnabled: true,
		dirty:       true,
	}
}

// Follow makes the camera track node with the given lerp factor per update.
// A lerp of 1 snaps immediately.
func (c *Camera) Follow(node *Node, lerp float64) {
	c.followTarget = node
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// update advances follow and scroll animation. Called from Scene.Update.
func (c *Camera) update(dt float32) {
	prevX, prevY := c.X, c.Y

	if c.followTarget != nil && !c.followTarget.IsDisposed() {
		tx, ty := c.followTarget.worldTransform[4], c.followTarget.worldTransform[5]
		c.X += (tx - c.X) * c.followLerp
		c.Y += (ty - c.Y) * c.followLerp
	}

	if s := c.scroll; s != nil {
		if !s.doneX {
			v, done := s.tweenX.Update(dt)
			c.X, s.doneX = float64(v), done
		}
		if !s.doneY {
			v, done := s.tweenY.Update(dt)
			c.Y, s.doneY = float64(v), done
		}
		if s.doneX && s.doneY {
			c.scroll = nil
		}
	}

	if c.X != prevX || c.Y != prevY {
		c.dirty = true
	}
}

// MarkDirty forces the view matrix to be recomputed, e.g. after changing
// Zoom, Rotation or Viewport directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// ViewMatrix returns the scene-to-screen transform:
// Translate(viewport center) * Scale(Zoom) * Rotate(-Rotation) * Translate(-X, -Y).
func (c *Camera) ViewMatrix() [6]float64 {
	if !c.dirty {
		return c.viewMatrix
	}
	c.dirty = false

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	sin, cos := math.Sincos(-c.Rotation)
	z := c.Zoom

	c.viewMatrix = [6]float64{
		z * cos,
		z * sin,
		-z * sin,
		z * cos,
		cx + z*(-cos*c.X+sin*c.Y),
		cy + z*(-sin*c.X-cos*c.Y),
	}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts scene coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return transformPoint(c.ViewMatrix(), wx, wy)
}

// ScreenToWorld converts screen coordinates to scene coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	c.ViewMatrix()
	return transformPoint(c.invViewMatrix, sx, sy)
}

// VisibleBounds returns the scene-space bounding rect of the viewport.
func (c *Camera) VisibleBounds() Rect {
	c.ViewMatrix()
	v := c.Viewport
	xs := [4]float64{}
	ys := [4]float64{}
	xs[0], ys[0] = transformPoint(c.invViewMatrix, v.X, v.Y)
	xs[1], ys[1] = transformPoint(c.invViewMatrix, v.X+v.Width, v.Y)
	xs[2], ys[2] = transformPoint(c.invViewMatrix, v.X+v.Width, v.Y+v.Height)
	xs[3], ys[3] = transformPoint(c.invViewMatrix, v.X, v.Y+v.Height)
	minX, maxX := min(xs[0], xs[1], xs[2], xs[3]), max(xs[0], xs[1], xs[2], xs[3])
	minY, maxY := min(ys[0], ys[1], ys[2], ys[3]), max(ys[0], ys[1], ys[2], ys[3])
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
