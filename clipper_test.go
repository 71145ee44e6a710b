package thicket

import (
	"math"
	"testing"
)

func newClipSlot() *Slot {
	bone := NewBone("root", nil)
	bone.UpdateWorldTransform()
	return &Slot{Name: "clip", Bone: bone, Color: ColorWhite}
}

func squareClip(x0, y0, x1, y1 float32) *ClippingAttachment {
	return &ClippingAttachment{Name: "clip", Vertices: []float32{x0, y0, x1, y0, x1, y1, x0, y1}}
}

// quadGeometry returns a two-triangle quad spanning (x0,y0)-(x1,y1) with
// UVs running 0..1 across it.
func quadGeometry(x0, y0, x1, y1 float32) (verts []float32, tris []uint16, uvs []float32) {
	verts = []float32{x0, y0, x1, y0, x1, y1, x0, y1}
	tris = []uint16{0, 1, 2, 2, 3, 0}
	uvs = []float32{0, 0, 1, 0, 1, 1, 0, 1}
	return
}

// clippedArea sums the absolute area of the clipper's output triangles.
func clippedArea(c *Clipper) float64 {
	v := c.ClippedVertices()
	tris := c.ClippedTriangles()
	var total float64
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, d := int(tris[i])*2, int(tris[i+1])*2, int(tris[i+2])*2
		cr := cross(v[a], v[a+1], v[b], v[b+1], v[d], v[d+1])
		total += math.Abs(float64(cr)) / 2
	}
	return total
}

func TestClipQuadOutsideProducesNothing(t *testing.T) {
	var c Clipper
	c.ClipStart(newClipSlot(), squareClip(0, 0, 10, 10))
	c.ClipTriangles(quadGeometry(20, 20, 30, 30))

	if n := len(c.ClippedTriangles()); n != 0 {
		t.Errorf("triangles = %d, want 0", n)
	}
}

func TestClipQuadInsideKeepsSharedVertices(t *testing.T) {
	var c Clipper
	c.ClipStart(newClipSlot(), squareClip(0, 0, 10, 10))
	verts, tris, uvs := quadGeometry(2, 2, 8, 8)
	c.ClipTriangles(verts, tris, uvs)

	if n := len(c.ClippedVertices()) / 2; n != 4 {
		t.Errorf("vertices = %d, want 4", n)
	}
	if n := len(c.ClippedTriangles()); n != 6 {
		t.Errorf("indices = %d, want 6", n)
	}
	for i, v := range c.ClippedVertices() {
		if v != verts[i] {
			t.Errorf("vertex[%d] = %v, want %v", i, v, verts[i])
		}
	}
}

func TestClipStraddlingQuadInterpolatesUVs(t *testing.T) {
	var c Clipper
	c.ClipStart(newClipSlot(), squareClip(0, 0, 10, 10))
	c.ClipTriangles(quadGeometry(5, 2, 15, 8))

	if got := clippedArea(&c); math.Abs(got-30) > 1e-3 {
		t.Errorf("clipped area = %v, want 30", got)
	}
	v, uv := c.ClippedVertices(), c.ClippedUVs()
	for i := 0; i+1 < len(v); i += 2 {
		if v[i] > 10+1e-4 {
			t.Errorf("vertex x = %v lies outside the clip", v[i])
		}
		want := (v[i] - 5) / 10
		if math.Abs(float64(uv[i]-want)) > 1e-4 {
			t.Errorf("u at x=%v = %v, want %v", v[i], uv[i], want)
		}
	}
}

func TestClipConcavePolygon(t *testing.T) {
	// L shape missing its bottom-right quarter.
	clip := &ClippingAttachment{Vertices: []float32{0, 0, 10, 0, 10, 5, 5, 5, 5, 10, 0, 10}}
	var c Clipper
	pieces := c.ClipStart(newClipSlot(), clip)
	if pieces < 2 {
		t.Fatalf("pieces = %d, want >= 2", pieces)
	}

	c.ClipTriangles(quadGeometry(6, 6, 9, 9))
	if n := len(c.ClippedTriangles()); n != 0 {
		t.Errorf("quad in the notch: triangles = %d, want 0", n)
	}

	c.ClipTriangles(quadGeometry(1, 1, 4, 4))
	if got := clippedArea(&c); math.Abs(got-9) > 1e-3 {
		t.Errorf("quad in the arm: area = %v, want 9", got)
	}

	c.ClipTriangles(quadGeometry(0, 0, 10, 10))
	if got := clippedArea(&c); math.Abs(got-75) > 1e-3 {
		t.Errorf("full quad: area = %v, want 75", got)
	}
}

func TestClipNegativeWindingIsNormalized(t *testing.T) {
	clip := &ClippingAttachment{Vertices: []float32{0, 0, 0, 10, 10, 10, 10, 0}}
	var c Clipper
	if c.ClipStart(newClipSlot(), clip) == 0 {
		t.Fatal("ClipStart rejected a reversed square")
	}
	c.ClipTriangles(quadGeometry(2, 2, 8, 8))
	if n := len(c.ClippedTriangles()); n != 6 {
		t.Errorf("indices = %d, want 6", n)
	}
}

func TestClipDegeneratePolygonDoesNotStart(t *testing.T) {
	clip := &ClippingAttachment{Vertices: []float32{0, 0, 5, 5, 10, 10}}
	var c Clipper
	if n := c.ClipStart(newClipSlot(), clip); n != 0 {
		t.Errorf("pieces = %d, want 0", n)
	}
	if c.IsClipping() {
		t.Error("degenerate clip should not be active")
	}
}

func TestClipEndMatchesEndSlot(t *testing.T) {
	endSlot := newClipSlot()
	other := newClipSlot()
	clip := squareClip(0, 0, 10, 10)
	clip.EndSlot = endSlot

	var c Clipper
	c.ClipStart(newClipSlot(), clip)
	c.ClipEnd(other)
	if !c.IsClipping() {
		t.Fatal("ClipEnd on a different slot stopped clipping")
	}
	c.ClipEnd(endSlot)
	if c.IsClipping() {
		t.Error("ClipEnd on the end slot should stop clipping")
	}
}

func TestClipEndAllIsUnconditional(t *testing.T) {
	var c Clipper
	c.ClipStart(newClipSlot(), squareClip(0, 0, 10, 10))
	c.ClipEndAll()
	if c.IsClipping() {
		t.Error("ClipEndAll should stop clipping")
	}
	c.ClipTriangles(quadGeometry(2, 2, 8, 8))
	if len(c.ClippedTriangles()) != 0 {
		t.Error("ClipTriangles without a clip should output nothing")
	}
}

func TestSecondClipStartReplacesRegion(t *testing.T) {
	var c Clipper
	slot := newClipSlot()
	c.ClipStart(slot, squareClip(0, 0, 10, 10))
	c.ClipStart(slot, squareClip(20, 20, 30, 30))

	c.ClipTriangles(quadGeometry(22, 22, 28, 28))
	if n := len(c.ClippedVertices()) / 2; n != 4 {
		t.Errorf("vertices = %d, want 4", n)
	}
	c.ClipTriangles(quadGeometry(2, 2, 8, 8))
	if n := len(c.ClippedTriangles()); n != 0 {
		t.Errorf("first region still clipping: triangles = %d, want 0", n)
	}
}

func TestClipFollowsBoneTransform(t *testing.T) {
	slot := newClipSlot()
	slot.Bone.X = 100
	slot.Bone.UpdateWorldTransform()

	var c Clipper
	c.ClipStart(slot, squareClip(0, 0, 10, 10))
	c.ClipTriangles(quadGeometry(102, 2, 108, 8))
	if n := len(c.ClippedTriangles()); n != 6 {
		t.Errorf("indices = %d, want 6", n)
	}
}
