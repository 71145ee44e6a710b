package thicket

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f32"
)

// Grid captures a node's subtree into an offscreen texture and redraws the
// texture through a distortion mesh. The scene calls BeforeDraw before the
// subtree and AfterDraw after it while the grid is active.
type Grid interface {
	Active() bool
	SetActive(active bool)
	BeforeDraw(q *RenderQueue, globalOrder int)
	AfterDraw(q *RenderQueue, globalOrder int)
	// Rebuild consumes one step of the reuse countdown.
	Rebuild()
	// Base returns the shared capture state.
	Base() *GridBase
}

// GridSize is the number of grid cells along each axis.
type GridSize struct {
	W, H int
}

// GridOptions configures a new grid.
type GridOptions struct {
	// Texture is the capture target. When nil a render texture covering
	// ViewSize, rounded up to powers of two, is created.
	Texture *Texture
	// ViewSize is the viewport size in pixels; defaults to the window size.
	ViewSize Vec2
	// Flipped computes V as (imageHeight - y) / height instead of y / height.
	Flipped bool
	// Rect is the area the mesh covers; defaults to the texture content.
	Rect Rect
}

// gridMesh is implemented by the concrete grid meshes.
type gridMesh interface {
	calculateVertexPoints()
	meshData() (verts []Vec3, texCoords []f32.Vec2, indices []uint16)
}

// GridBase is the capture and composite machinery shared by Grid3D and
// TiledGrid3D.
type GridBase struct {
	mesh gridMesh

	active    bool
	reuseGrid int
	gridSize  GridSize
	texture   *Texture
	flipped   bool
	gridRect  Rect
	step      Vec2
	blend     BlendFunc

	// NeedDepthTest enables depth test and write while compositing, for
	// effects whose tiles overlap in z.
	NeedDepthTest bool
	// ClearColor fills the capture texture before the subtree draws.
	ClearColor Color

	savedProjection Projection
	savedViewport   Rect
	savedTarget     *Texture
	savedDepthTest  bool
	savedDepthWrite bool

	beginCapture func(Device)
	clearTarget  func(Device)
	endCapture   func(Device)
	beforeBlit   func(Device)
	afterBlit    func(Device)

	call     DrawCall
	ebitVert []ebiten.Vertex
	ebitInd  []uint32
	depth    []float32
}

// init validates the size, resolves the texture and rect, and wires the
// capture callbacks once so recording them allocates nothing.
func (g *GridBase) init(mesh gridMesh, size GridSize, opts GridOptions) {
	if size.W < 1 || size.H < 1 {
		panic("thicket: grid size must be at least 1x1")
	}
	g.mesh = mesh
	g.gridSize = size
	g.flipped = opts.Flipped

	g.texture = opts.Texture
	if g.texture == nil {
		w, h := int(opts.ViewSize.X), int(opts.ViewSize.Y)
		if w <= 0 || h <= 0 {
			w, h = ebiten.WindowSize()
		}
		if w <= 0 || h <= 0 {
			panic("thicket: grid needs a texture or a view size")
		}
		g.texture = NewRenderTexture(w, h)
	}
	g.updateBlendState()

	g.gridRect = opts.Rect
	if g.gridRect.IsZero() {
		cw, ch := g.texture.ContentSize()
		g.gridRect = Rect{0, 0, float64(cw), float64(ch)}
	}
	g.updateStep()

	g.beginCapture = g.onBeginCapture
	g.clearTarget = g.onClear
	g.endCapture = g.onEndCapture
	g.beforeBlit = g.onBeforeBlit
	g.afterBlit = g.onAfterBlit

	mesh.calculateVertexPoints()
}

// Base returns g.
func (g *GridBase) Base() *GridBase { return g }

// Active reports whether the grid captures and composites its node.
func (g *GridBase) Active() bool { return g.active }

// SetActive toggles capturing. An inactive grid leaves its node drawing
// straight to the current target.
func (g *GridBase) SetActive(active bool) { g.active = active }

// GridSize returns the cell counts.
func (g *GridBase) GridSize() GridSize { return g.gridSize }

// GridRect returns the area covered by the mesh.
func (g *GridBase) GridRect() Rect { return g.gridRect }

// Step returns the size of one cell.
func (g *GridBase) Step() Vec2 { return g.step }

// Texture returns the capture texture.
func (g *GridBase) Texture() *Texture { return g.texture }

// BlendFunc returns the composite blend function, derived from whether the
// capture texture is premultiplied.
func (g *GridBase) BlendFunc() BlendFunc { return g.blend }

// TextureFlipped reports whether V is flipped.
func (g *GridBase) TextureFlipped() bool { return g.flipped }

// SetTextureFlipped changes the V convention and regenerates the mesh if it
// changed.
func (g *GridBase) SetTextureFlipped(flipped bool) {
	if g.flipped == flipped {
		return
	}
	g.flipped = flipped
	g.mesh.calculateVertexPoints()
}

// SetGridRect moves the mesh to cover r and regenerates it.
func (g *GridBase) SetGridRect(r Rect) {
	g.gridRect = r
	g.updateStep()
	g.mesh.calculateVertexPoints()
}

// Reuse makes the next n calls to Rebuild adopt the current vertices as the
// new original mesh.
func (g *GridBase) Reuse(n int) { g.reuseGrid = n }

// ReuseCount returns the remaining reuse countdown.
func (g *GridBase) ReuseCount() int { return g.reuseGrid }

// Regenerate discards all vertex changes and rebuilds the flat mesh.
func (g *GridBase) Regenerate() { g.mesh.calculateVertexPoints() }

func (g *GridBase) updateStep() {
	g.step = Vec2{g.gridRect.Width / float64(g.gridSize.W), g.gridRect.Height / float64(g.gridSize.H)}
}

func (g *GridBase) updateBlendState() {
	if g.texture.HasPremultipliedAlpha() {
		g.blend = BlendFuncAlphaPremultiplied
	} else {
		g.blend = BlendFuncAlphaNonPremultiplied
	}
}

// --- Capture ---

// BeforeDraw opens a command group and records the callbacks that redirect
// drawing into the capture texture. Every command recorded until AfterDraw
// lands in the texture.
func (g *GridBase) BeforeDraw(q *RenderQueue, globalOrder int) {
	id := q.CreateGroup()
	q.AddGroup(id, globalOrder)
	q.PushGroup(id)
	q.AddCallback(globalOrder, g.beginCapture)
	q.AddCallback(globalOrder, g.clearTarget)
}

// AfterDraw closes the capture group, restoring projection, viewport and
// target, then records the composite of the texture through the mesh.
func (g *GridBase) AfterDraw(q *RenderQueue, globalOrder int) {
	q.AddCallback(globalOrder, g.endCapture)
	q.PopGroup()

	q.AddCallback(globalOrder, g.beforeBlit)
	g.blit(q, globalOrder)
	q.AddCallback(globalOrder, g.afterBlit)
}

func (g *GridBase) onBeginCapture(d Device) {
	g.savedProjection = d.Projection()
	d.SetProjection(Projection2D)
	g.savedViewport = d.Viewport()
	cw, ch := g.texture.ContentSize()
	d.SetViewport(Rect{0, 0, float64(cw), float64(ch)})
	g.savedTarget = d.RenderTarget()
	d.SetRenderTarget(g.texture)
}

func (g *GridBase) onClear(d Device) {
	d.Clear(g.ClearColor)
}

func (g *GridBase) onEndCapture(d Device) {
	d.SetProjection(g.savedProjection)
	d.SetViewport(g.savedViewport)
	d.SetRenderTarget(g.savedTarget)
	g.savedTarget = nil
}

func (g *GridBase) onBeforeBlit(d Device) {
	g.savedDepthTest = d.DepthTest()
	g.savedDepthWrite = d.DepthWrite()
	if g.NeedDepthTest {
		d.SetDepthTest(true)
		d.SetDepthWrite(true)
	}
}

func (g *GridBase) onAfterBlit(d Device) {
	d.SetDepthTest(g.savedDepthTest)
	d.SetDepthWrite(g.savedDepthWrite)
}

// blit converts the current mesh into the composite draw call and records it.
func (g *GridBase) blit(q *RenderQueue, globalOrder int) {
	g.updateVertexBuffer()
	q.AddDrawCall(&g.call, globalOrder)
}

// updateVertexBuffer rebuilds the GPU-side vertices, indices and depths from
// the current mesh. Buffers grow to a high-water mark and are reused.
func (g *GridBase) updateVertexBuffer() {
	verts, texCoords, indices := g.mesh.meshData()
	n := len(verts)
	if cap(g.ebitVert) < n {
		g.ebitVert = make([]ebiten.Vertex, n)
		g.depth = make([]float32, n)
	}
	g.ebitVert = g.ebitVert[:n]
	g.depth = g.depth[:n]
	if cap(g.ebitInd) < len(indices) {
		g.ebitInd = make([]uint32, len(indices))
	}
	g.ebitInd = g.ebitInd[:len(indices)]

	tw, th := float32(g.texture.Width()), float32(g.texture.Height())
	flat := true
	for i, v := range verts {
		g.ebitVert[i] = ebiten.Vertex{
			DstX:   v[0],
			DstY:   v[1],
			SrcX:   texCoords[i][0] * tw,
			SrcY:   texCoords[i][1] * th,
			ColorR: 1,
			ColorG: 1,
			ColorB: 1,
			ColorA: 1,
		}
		g.depth[i] = v[2]
		if v[2] != 0 {
			flat = false
		}
	}
	for i, idx := range indices {
		g.ebitInd[i] = uint32(idx)
	}

	g.call = DrawCall{
		Texture:  g.texture,
		Blend:    g.blend,
		Vertices: g.ebitVert,
		Indices:  g.ebitInd,
	}
	if !flat {
		g.call.Depth = g.depth
	}
}

// checkGridPos panics unless pos is an integer point inside [0, maxX] x [0, maxY].
func checkGridPos(pos Vec2, maxX, maxY int) (int, int) {
	if pos.X != math.Trunc(pos.X) || pos.Y != math.Trunc(pos.Y) {
		panic("thicket: grid position must be integral")
	}
	x, y := int(pos.X), int(pos.Y)
	if x < 0 || y < 0 || x > maxX || y > maxY {
		panic("thicket: grid position out of range")
	}
	return x, y
}
