package thicket

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// recordedCall is a DrawCall copied out of the queue's reused buffers.
type recordedCall struct {
	Texture             *Texture
	Blend               BlendFunc
	TwoColor            bool
	PremultipliedColors bool
	Vertices            []ebiten.Vertex
	Indices             []uint32
	Depth               []float32
}

// fakeDevice records everything a RenderQueue does to it.
type fakeDevice struct {
	target     *Texture
	projection Projection
	viewport   Rect
	depthTest  bool
	depthWrite bool

	calls   []recordedCall
	clears  []Color
	prims   [][]Primitive
	events  []string
	targets []*Texture
}

func newFakeDevice(w, h float64) *fakeDevice {
	return &fakeDevice{viewport: Rect{Width: w, Height: h}, projection: Projection3D}
}

func (d *fakeDevice) RenderTarget() *Texture { return d.target }

func (d *fakeDevice) SetRenderTarget(t *Texture) {
	d.target = t
	d.targets = append(d.targets, t)
	d.events = append(d.events, fmt.Sprintf("target:%t", t != nil))
}

func (d *fakeDevice) Projection() Projection { return d.projection }

func (d *fakeDevice) SetProjection(p Projection) {
	d.projection = p
	d.events = append(d.events, fmt.Sprintf("projection:%d", p))
}

func (d *fakeDevice) Viewport() Rect { return d.viewport }

func (d *fakeDevice) SetViewport(r Rect) {
	d.viewport = r
	d.events = append(d.events, fmt.Sprintf("viewport:%vx%v", r.Width, r.Height))
}

func (d *fakeDevice) DepthTest() bool            { return d.depthTest }
func (d *fakeDevice) SetDepthTest(enabled bool)  { d.depthTest = enabled }
func (d *fakeDevice) DepthWrite() bool           { return d.depthWrite }
func (d *fakeDevice) SetDepthWrite(enabled bool) { d.depthWrite = enabled }

func (d *fakeDevice) Clear(c Color) {
	d.clears = append(d.clears, c)
	d.events = append(d.events, "clear")
}

func (d *fakeDevice) DrawTriangles(call *DrawCall) {
	d.calls = append(d.calls, recordedCall{
		Texture:             call.Texture,
		Blend:               call.Blend,
		TwoColor:            call.TwoColor,
		PremultipliedColors: call.PremultipliedColors,
		Vertices:            append([]ebiten.Vertex(nil), call.Vertices...),
		Indices:             append([]uint32(nil), call.Indices...),
		Depth:               append([]float32(nil), call.Depth...),
	})
	d.events = append(d.events, "draw")
}

func (d *fakeDevice) DrawPrimitives(prims []Primitive) {
	d.prims = append(d.prims, append([]Primitive(nil), prims...))
	d.events = append(d.events, "primitives")
}

// testTexture returns a texture that never touches the GPU as long as
// Image is not called.
func testTexture(w, h int) *Texture {
	return NewTextureSize(w, h, w, h, true)
}

// addQuad records a unit quad with the given material into q via b.
func addQuad(b *VertexBatch[Vertex], q *RenderQueue, tex *Texture, blend BlendFunc, order int) *TrianglesCommand {
	verts := b.AllocateVertices(4)
	inds := b.AllocateIndices(6)
	verts[0] = Vertex{X: 0, Y: 0}
	verts[1] = Vertex{X: 1, Y: 0, U: 1}
	verts[2] = Vertex{X: 1, Y: 1, U: 1, V: 1}
	verts[3] = Vertex{X: 0, Y: 1, V: 1}
	copy(inds, []uint16{0, 1, 2, 2, 3, 0})
	return b.AddCommand(q, tex, blend, Triangles[Vertex]{Verts: verts, Indices: inds}, identityTransform, order)
}
