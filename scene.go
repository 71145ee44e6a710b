package thicket

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- FrameContext ---

// FrameContext is the per-frame render state handed to every Drawable: the
// command queue, one shared vertex batch per layout, and the camera being
// drawn through. Scratch memory it hands out lives until Reset.
type FrameContext struct {
	Queue         *RenderQueue
	Batch         *VertexBatch[Vertex]
	TwoColorBatch *VertexBatch[TwoColorVertex]

	// Camera is the camera being drawn through, or nil without cameras.
	Camera *Camera
	// DefaultCamera is the scene's first camera. Renderers cull only while
	// drawing through it.
	DefaultCamera *Camera
	// Transform is the current node's node-to-target transform.
	Transform [6]float64
	// SiblingScanLimit bounds the sibling lookahead of two-color batching.
	SiblingScanLimit int
}

// NewFrameContext creates an empty context with fresh batches.
func NewFrameContext() *FrameContext {
	return &FrameContext{
		Queue:            NewRenderQueue(),
		Batch:            NewVertexBatch[Vertex](),
		TwoColorBatch:    NewVertexBatch[TwoColorVertex](),
		Transform:        identityTransform,
		SiblingScanLimit: DefaultSiblingScanLimit,
	}
}

// cullingEnabled reports whether renderers may skip off-screen content.
func (c *FrameContext) cullingEnabled() bool {
	return c.Camera != nil && c.Camera == c.DefaultCamera && c.Camera.CullEnabled
}

// Reset ends the frame: recorded commands are dropped and both batches
// become reusable. Call only after the queue has executed.
func (c *FrameContext) Reset() {
	c.Queue.Reset()
	c.Batch.Reset()
	c.TwoColorBatch.Reset()
	c.Transform = identityTransform
}

// --- Scene ---

// Scene owns the node tree, cameras and render state. Update advances
// animation; Draw records every visible node into the frame's queue and
// executes it against the screen.
type Scene struct {
	root  *Node
	debug bool

	cameras []*Camera
	frame   *FrameContext
	device  ebitenDevice

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color
	// SiblingScanLimit is the sibling count above which two-color skeletons
	// always force a flush instead of scanning for a compatible neighbor.
	SiblingScanLimit int

	// ScreenshotDir receives files written by Screenshot.
	ScreenshotDir string
	// ScreenshotFormat selects the encoding of queued screenshots.
	ScreenshotFormat ImageFormat

	screenshotQueue []string
	updateFunc      func() error
	lastStats       QueueStats
	tweens          []*TweenGroup
	script          *ScriptRunner
}

// NewScene creates a scene with an empty root node.
func NewScene() *Scene {
	return &Scene{
		root:             NewNode("root"),
		frame:            NewFrameContext(),
		SiblingScanLimit: DefaultSiblingScanLimit,
		ScreenshotDir:    "screenshots",
	}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Frame returns the scene's frame context.
func (s *Scene) Frame() *FrameContext {
	return s.frame
}

// LastStats returns the queue statistics of the most recent Draw.
func (s *Scene) LastStats() QueueStats {
	return s.lastStats
}

// SetUpdateFunc registers a callback run at the start of every Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// Update advances the scene by one tick at the current TPS.
func (s *Scene) Update() error {
	if s.script != nil {
		s.script.step(s)
	}
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	s.UpdateDelta(1.0 / float64(ebiten.TPS()))
	return nil
}

// UpdateDelta advances tweens, cameras, node callbacks, drawables and grid
// effects by dt seconds.
func (s *Scene) UpdateDelta(dt float64) {
	s.updateTweens(float32(dt))

	// Refresh world transforms first so camera follow targets are current.
	updateWorldTransform(s.root, identityTransform, 1.0, false)

	for _, cam := range s.cameras {
		cam.update(float32(dt))
	}
	updateNodes(s.root, dt)
}

// updateNodes runs per-node updates depth first.
func updateNodes(n *Node, dt float64) {
	if n.OnUpdate != nil {
		n.OnUpdate(dt)
	}
	if u, ok := n.Drawable.(updater); ok {
		u.Update(dt)
	}
	tickGridEffect(n, float32(dt))
	for _, child := range n.children {
		updateNodes(child, dt)
	}
}

// Draw renders the scene to screen through every camera, then writes any
// queued screenshots.
func (s *Scene) Draw(screen *ebiten.Image) {
	s.device.begin(screen)
	if s.ClearColor.A > 0 {
		s.device.Clear(s.ClearColor)
	}
	s.DrawTo(&s.device)
	s.flushScreenshots(screen)
}

// DrawTo records and executes the frame against d. Each camera gets its own
// traversal and queue execution; without cameras the scene draws once with
// an identity view.
func (s *Scene) DrawTo(d Device) {
	updateWorldTransform(s.root, identityTransform, 1.0, false)

	if len(s.cameras) == 0 {
		s.drawWithCamera(d, nil)
		return
	}
	for _, cam := range s.cameras {
		s.drawWithCamera(d, cam)
	}
}

// drawWithCamera records the tree as seen through cam, executes the queue
// and resets the frame scratch.
func (s *Scene) drawWithCamera(d Device, cam *Camera) {
	ctx := s.frame
	ctx.Camera = cam
	ctx.DefaultCamera = nil
	if len(s.cameras) > 0 {
		ctx.DefaultCamera = s.cameras[0]
	}
	ctx.SiblingScanLimit = s.SiblingScanLimit
	if ctx.SiblingScanLimit <= 0 {
		ctx.SiblingScanLimit = DefaultSiblingScanLimit
	}

	view := identityTransform
	var savedViewport Rect
	if cam != nil {
		view = cam.ViewMatrix()
		savedViewport = d.Viewport()
		d.SetViewport(cam.Viewport)
	}

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.visit(s.root, view)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		stats.vertices = ctx.Batch.VerticesInUse()
		stats.twoColorVerts = ctx.TwoColorBatch.VerticesInUse()
		t0 = time.Now()
	}

	s.lastStats = ctx.Queue.Execute(d)

	if s.debug {
		stats.executeTime = time.Since(t0)
		stats.queue = s.lastStats
		s.debugLog(stats)
	}

	if cam != nil {
		d.SetViewport(savedViewport)
	}
	ctx.Reset()
}

// visit records n and its subtree. A node with an active grid wraps its
// whole subtree in the grid's capture, so BeforeDraw and AfterDraw always
// pair up within the frame.
func (s *Scene) visit(n *Node, view [6]float64) {
	if !n.Visible {
		return
	}
	ctx := s.frame
	if s.debug {
		debugCheckTreeDepth(n)
		debugCheckChildCount(n, ctx.SiblingScanLimit)
	}

	grid := n.Grid
	capturing := grid != nil && grid.Active()
	if capturing {
		grid.BeforeDraw(ctx.Queue, n.GlobalOrder)
	}

	if n.Drawable != nil {
		ctx.Transform = multiplyAffine(view, n.worldTransform)
		n.Drawable.Draw(ctx, n)
	}
	for _, child := range n.children {
		s.visit(child, view)
	}

	if capturing {
		grid.AfterDraw(ctx.Queue, n.GlobalOrder)
	}
}

// --- Cameras ---

// NewCamera creates a camera with the given viewport and adds it to the
// scene. The first camera added is the default camera.
func (s *Scene) NewCamera(viewport Rect) *Camera {
	cam := newCamera(viewport)
	s.cameras = append(s.cameras, cam)
	return cam
}

// RemoveCamera removes a camera from the scene.
func (s *Scene) RemoveCamera(cam *Camera) {
	for i, c := range s.cameras {
		if c == cam {
			s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
			return
		}
	}
}

// Cameras returns the scene's camera list. The returned slice MUST NOT be mutated.
func (s *Scene) Cameras() []*Camera {
	return s.cameras
}

// DefaultCamera returns the first camera, or nil.
func (s *Scene) DefaultCamera() *Camera {
	if len(s.cameras) == 0 {
		return nil
	}
	return s.cameras[0]
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are printed, and
// per-frame timing and batching stats are logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool
