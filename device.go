package thicket

import (
	"image"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/math/f32"
)

// Projection selects how a Device maps vertex depth to the screen.
type Projection uint8

const (
	// Projection3D is a perspective projection centered on the viewport.
	// Vertices with z = 0 land exactly where a 2D projection puts them.
	Projection3D Projection = iota
	// Projection2D is an orthographic projection sized to the viewport.
	Projection2D
)

// DrawCall is one merged GPU draw: triangles sampling one texture with one
// blend function and one vertex layout.
type DrawCall struct {
	Texture  *Texture
	Blend    BlendFunc
	TwoColor bool
	// PremultipliedColors reports that vertex colors are premultiplied.
	PremultipliedColors bool
	Vertices            []ebiten.Vertex
	Indices             []uint32
	// Depth holds one z value per vertex, or nil for flat geometry.
	Depth []float32
}

// PrimitiveKind selects how a Primitive's points are drawn.
type PrimitiveKind uint8

const (
	PrimitiveLine    PrimitiveKind = iota // segments between consecutive point pairs
	PrimitivePoint                        // filled dots
	PrimitivePolygon                      // closed outline
)

// Primitive is an immediate-mode debug shape in target coordinates.
type Primitive struct {
	Kind   PrimitiveKind
	Points []Vec2
	Color  Color
	Size   float64
}

// Device is the graphics backend a RenderQueue executes against. The
// ebiten-backed implementation draws to the screen or an offscreen Texture;
// tests substitute a recording fake.
type Device interface {
	// RenderTarget returns the bound target, or nil for the screen.
	RenderTarget() *Texture
	SetRenderTarget(t *Texture)
	Projection() Projection
	SetProjection(p Projection)
	Viewport() Rect
	SetViewport(r Rect)
	DepthTest() bool
	SetDepthTest(enabled bool)
	DepthWrite() bool
	SetDepthWrite(enabled bool)
	// Clear fills the bound target's viewport with c.
	Clear(c Color)
	DrawTriangles(call *DrawCall)
	DrawPrimitives(prims []Primitive)
}

// --- Ebitengine device ---

// twoColorShaderSrc tints with a light color and lifts shadows toward a dark
// color. custom.rgb is the dark color; custom.a is 1 when colors are
// premultiplied.
const twoColorShaderSrc = `//kage:unit pixels
package main

func Fragment(dstPos vec4, srcPos vec2, color vec4, custom vec4) vec4 {
	tex := imageSrc0At(srcPos)
	rgb := ((tex.a-1.0)*custom.a+1.0-tex.rgb)*custom.rgb + tex.rgb*color.rgb
	return vec4(rgb, tex.a*color.a)
}
`

var twoColorShader *ebiten.Shader

func ensureTwoColorShader() *ebiten.Shader {
	if twoColorShader == nil {
		s, err := ebiten.NewShader([]byte(twoColorShaderSrc))
		if err != nil {
			panic("thicket: failed to compile two-color shader: " + err.Error())
		}
		twoColorShader = s
	}
	return twoColorShader
}

// ebitenDevice draws onto the frame's screen image or an offscreen texture.
// Depth write is tracked but has no effect: ebiten has no depth buffer, so
// depth testing is emulated by sorting triangles back to front.
type ebitenDevice struct {
	screen     *ebiten.Image
	target     *Texture
	projection Projection
	viewport   Rect
	depthTest  bool
	depthWrite bool

	projected []ebiten.Vertex
	triOrder  []int
	sorted    []uint32
}

// begin resets device state for a new frame drawn onto screen.
func (d *ebitenDevice) begin(screen *ebiten.Image) {
	b := screen.Bounds()
	d.screen = screen
	d.target = nil
	d.projection = Projection3D
	d.viewport = Rect{0, 0, float64(b.Dx()), float64(b.Dy())}
	d.depthTest = false
	d.depthWrite = false
}

func (d *ebitenDevice) RenderTarget() *Texture     { return d.target }
func (d *ebitenDevice) SetRenderTarget(t *Texture) { d.target = t }
func (d *ebitenDevice) Projection() Projection     { return d.projection }
func (d *ebitenDevice) SetProjection(p Projection) { d.projection = p }
func (d *ebitenDevice) Viewport() Rect             { return d.viewport }
func (d *ebitenDevice) SetViewport(r Rect)         { d.viewport = r }
func (d *ebitenDevice) DepthTest() bool            { return d.depthTest }
func (d *ebitenDevice) SetDepthTest(enabled bool)  { d.depthTest = enabled }
func (d *ebitenDevice) DepthWrite() bool           { return d.depthWrite }
func (d *ebitenDevice) SetDepthWrite(enabled bool) { d.depthWrite = enabled }

// dst returns the bound image clipped to the viewport.
func (d *ebitenDevice) dst() *ebiten.Image {
	img := d.screen
	if d.target != nil {
		img = d.target.Image()
	}
	vp := image.Rect(int(d.viewport.X), int(d.viewport.Y),
		int(d.viewport.X+d.viewport.Width), int(d.viewport.Y+d.viewport.Height))
	if !vp.Empty() && vp != img.Bounds() {
		img = img.SubImage(vp).(*ebiten.Image)
	}
	return img
}

func (d *ebitenDevice) Clear(c Color) {
	dst := d.dst()
	if c.A == 0 {
		dst.Clear()
		return
	}
	dst.Fill(c.toRGBA())
}

func (d *ebitenDevice) DrawTriangles(call *DrawCall) {
	if len(call.Indices) == 0 || call.Texture == nil {
		return
	}
	verts := call.Vertices
	indices := call.Indices
	if call.Depth != nil {
		if d.projection == Projection3D {
			verts = d.project(verts, call.Depth)
		}
		if d.depthTest {
			indices = d.sortByDepth(indices, call.Depth)
		}
	}

	dst := d.dst()
	src := call.Texture.Image()
	if call.TwoColor {
		var op ebiten.DrawTrianglesShaderOptions
		op.Blend = call.Blend.EbitenBlend()
		op.Images[0] = src
		dst.DrawTrianglesShader32(verts, indices, ensureTwoColorShader(), &op)
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.Blend = call.Blend.EbitenBlend()
	if call.PremultipliedColors {
		op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	}
	dst.DrawTriangles32(verts, indices, src, &op)
}

func (d *ebitenDevice) DrawPrimitives(prims []Primitive) {
	dst := d.dst()
	for _, p := range prims {
		clr := p.Color.toRGBA()
		w := float32(p.Size)
		switch p.Kind {
		case PrimitiveLine:
			for i := 0; i+1 < len(p.Points); i += 2 {
				a, b := p.Points[i], p.Points[i+1]
				vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), w, clr, true)
			}
		case PrimitivePoint:
			for _, pt := range p.Points {
				vector.DrawFilledCircle(dst, float32(pt.X), float32(pt.Y), w/2, clr, true)
			}
		case PrimitivePolygon:
			n := len(p.Points)
			for i := range n {
				a, b := p.Points[i], p.Points[(i+1)%n]
				vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), w, clr, true)
			}
		}
	}
}

// project applies the viewport perspective to every vertex. The result is
// written to a reused buffer.
func (d *ebitenDevice) project(verts []ebiten.Vertex, depth []float32) []ebiten.Vertex {
	if cap(d.projected) < len(verts) {
		d.projected = make([]ebiten.Vertex, len(verts))
	}
	out := d.projected[:len(verts)]
	m := perspectiveMatrix(d.viewport)
	cx := float32(d.viewport.X + d.viewport.Width/2)
	cy := float32(d.viewport.Y + d.viewport.Height/2)
	for i, v := range verts {
		out[i] = v
		out[i].DstX, out[i].DstY = projectPoint(&m, v.DstX-cx, v.DstY-cy, depth[i])
		out[i].DstX += cx
		out[i].DstY += cy
	}
	return out
}

// sortByDepth returns the triangles reordered far-to-near by mean depth.
func (d *ebitenDevice) sortByDepth(indices []uint32, depth []float32) []uint32 {
	n := len(indices) / 3
	if cap(d.triOrder) < n {
		d.triOrder = make([]int, n)
	}
	order := d.triOrder[:n]
	for i := range order {
		order[i] = i
	}
	mean := func(t int) float32 {
		return depth[indices[t*3]] + depth[indices[t*3+1]] + depth[indices[t*3+2]]
	}
	slices.SortStableFunc(order, func(a, b int) int {
		za, zb := mean(a), mean(b)
		switch {
		case za < zb:
			return -1
		case za > zb:
			return 1
		}
		return 0
	})
	if cap(d.sorted) < len(indices) {
		d.sorted = make([]uint32, len(indices))
	}
	out := d.sorted[:n*3]
	for i, t := range order {
		copy(out[i*3:i*3+3], indices[t*3:t*3+3])
	}
	return out
}

// zEye is the eye distance giving a 60 degree vertical field of view.
func zEye(height float64) float32 {
	return float32(height / 1.1566)
}

// perspectiveMatrix maps viewport-centered points (x, y, z, 1) to clip
// coordinates whose w divide yields pixel offsets from the viewport center.
func perspectiveMatrix(vp Rect) f32.Mat4 {
	eye := zEye(vp.Height)
	return f32.Mat4{
		eye, 0, 0, 0,
		0, eye, 0, 0,
		0, 0, 1, 0,
		0, 0, -1, eye,
	}
}

// projectPoint transforms a viewport-centered point through m and divides by w.
// Points at or behind the eye are left unprojected.
func projectPoint(m *f32.Mat4, x, y, z float32) (float32, float32) {
	px := m[0]*x + m[1]*y + m[2]*z + m[3]
	py := m[4]*x + m[5]*y + m[6]*z + m[7]
	w := m[12]*x + m[13]*y + m[14]*z + m[15]
	if w <= 0 {
		return x, y
	}
	return px / w, py / w
}
