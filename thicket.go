package thicket

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f32"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Conversion to 8-bit vertex color happens at batch submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is the default dark color for two-color tinting.
var ColorBlack = Color{0, 0, 0, 1}

// Mul returns the component-wise product of c and o.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// RGBA8 converts the color to 8-bit channels, rounding to nearest and
// clamping to [0, 255]. No premultiplication is applied.
func (c Color) RGBA8() color.RGBA {
	return color.RGBA{R: unitToByte(c.R), G: unitToByte(c.G), B: unitToByte(c.B), A: unitToByte(c.A)}
}

// toRGBA converts to the premultiplied color.RGBA that ebiten's Fill expects.
func (c Color) toRGBA() color.RGBA {
	return Color{c.R * c.A, c.G * c.A, c.B * c.A, c.A}.RGBA8()
}

func unitToByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Vec2 is a 2D vector used for positions, sizes and grid coordinates.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D grid vertex position (x, y, z) in pixels.
type Vec3 = f32.Vec3

// Quad3 is one tile of a TiledGrid3D. Corners are ordered (x1, y1),
// (x2, y1), (x1, y2), (x2, y2) where x1 < x2 and y1 < y2 on the flat grid.
type Quad3 [4]f32.Vec3

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// IsZero reports whether the rectangle has no area and sits at the origin.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// BlendMode is the blend mode an attachment's slot requests.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over
	BlendAdditive                  // lighter
	BlendMultiply                  // source * destination
	BlendScreen                    // 1 - (1-src)*(1-dst)
)

// BlendFactor is one side of a (src, dst) blend function.
type BlendFactor uint8

const (
	FactorZero BlendFactor = iota
	FactorOne
	FactorSrcAlpha
	FactorOneMinusSrcAlpha
	FactorSrcColor
	FactorOneMinusSrcColor
	FactorDstColor
	FactorDstAlpha
)

// BlendFunc is a fixed (src, dst) blend-factor pair applied to both the color
// and alpha channels.
type BlendFunc struct {
	Src, Dst BlendFactor
}

// Well-known blend functions.
var (
	BlendFuncAlphaPremultiplied    = BlendFunc{FactorOne, FactorOneMinusSrcAlpha}
	BlendFuncAlphaNonPremultiplied = BlendFunc{FactorSrcAlpha, FactorOneMinusSrcAlpha}
	BlendFuncAdditive              = BlendFunc{FactorSrcAlpha, FactorOne}
)

// BlendFuncFor returns the blend function for a slot blend mode drawn from a
// texture with or without premultiplied alpha.
//
//	Normal    premult: (ONE, 1-SRC_ALPHA)     straight: (SRC_ALPHA, 1-SRC_ALPHA)
//	Additive  premult: (ONE, ONE)             straight: (SRC_ALPHA, ONE)
//	Multiply  both:    (DST_COLOR, 1-SRC_ALPHA)
//	Screen    both:    (ONE, 1-SRC_COLOR)
func BlendFuncFor(mode BlendMode, premultiplied bool) BlendFunc {
	switch mode {
	case BlendAdditive:
		if premultiplied {
			return BlendFunc{FactorOne, FactorOne}
		}
		return BlendFunc{FactorSrcAlpha, FactorOne}
	case BlendMultiply:
		return BlendFunc{FactorDstColor, FactorOneMinusSrcAlpha}
	case BlendScreen:
		return BlendFunc{FactorOne, FactorOneMinusSrcColor}
	default:
		if premultiplied {
			return BlendFuncAlphaPremultiplied
		}
		return BlendFuncAlphaNonPremultiplied
	}
}

// EbitenBlend returns the ebiten.Blend value for this blend function.
func (f BlendFunc) EbitenBlend() ebiten.Blend {
	return ebiten.Blend{
		BlendFactorSourceRGB:        f.Src.ebiten(),
		BlendFactorSourceAlpha:      f.Src.ebiten(),
		BlendFactorDestinationRGB:   f.Dst.ebiten(),
		BlendFactorDestinationAlpha: f.Dst.ebiten(),
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}
}

func (b BlendFactor) ebiten() ebiten.BlendFactor {
	switch b {
	case FactorZero:
		return ebiten.BlendFactorZero
	case FactorOne:
		return ebiten.BlendFactorOne
	case FactorSrcAlpha:
		return ebiten.BlendFactorSourceAlpha
	case FactorOneMinusSrcAlpha:
		return ebiten.BlendFactorOneMinusSourceAlpha
	case FactorSrcColor:
		return ebiten.BlendFactorSourceColor
	case FactorOneMinusSrcColor:
		return ebiten.BlendFactorOneMinusSourceColor
	case FactorDstColor:
		return ebiten.BlendFactorDestinationColor
	case FactorDstAlpha:
		return ebiten.BlendFactorDestinationAlpha
	default:
		return ebiten.BlendFactorOne
	}
}

// Vertex is the single-tint vertex layout: position, UV (normalized), color.
type Vertex struct {
	X, Y  float32
	U, V  float32
	Color color.RGBA
}

// TwoColorVertex is the two-color-tint layout. Dark.A carries 255 when the
// light color is premultiplied and 0 otherwise; the shader reads it as a flag.
type TwoColorVertex struct {
	X, Y  float32
	U, V  float32
	Light color.RGBA
	Dark  color.RGBA
}

// vertexLayout constrains VertexBatch to the two supported layouts.
type vertexLayout interface {
	Vertex | TwoColorVertex
}

// vertexWriter is the pointer side of a vertex layout, used by renderers
// that fill either layout with one code path.
type vertexWriter[V vertexLayout] interface {
	*V
	setPosition(x, y float32)
	setUV(u, v float32)
	setColors(light, dark color.RGBA)
}

func (v *Vertex) setPosition(x, y float32)         { v.X, v.Y = x, y }
func (v *Vertex) setUV(u, w float32)               { v.U, v.V = u, w }
func (v *Vertex) setColors(light, _ color.RGBA)    { v.Color = light }
func (v *TwoColorVertex) setPosition(x, y float32) { v.X, v.Y = x, y }
func (v *TwoColorVertex) setUV(u, w float32)       { v.U, v.V = u, w }
func (v *TwoColorVertex) setColors(light, dark color.RGBA) {
	v.Light = light
	v.Dark = dark
}
