package thicket

import (
	"slices"
	"testing"
)

func gridOpts(w, h int) GridOptions {
	return GridOptions{Texture: testTexture(w, h)}
}

// --- Construction ---

func TestGrid3DCounts(t *testing.T) {
	g := NewGrid3D(GridSize{4, 3}, gridOpts(64, 64))
	if n := len(g.Vertices()); n != 5*4 {
		t.Errorf("vertices = %d, want 20", n)
	}
	if n := len(g.Indices()); n != 4*3*6 {
		t.Errorf("indices = %d, want 72", n)
	}
	if n := len(g.TexCoords()); n != 20 {
		t.Errorf("texcoords = %d, want 20", n)
	}
	if g.Active() {
		t.Error("new grid should be inactive")
	}
}

func TestTiledGrid3DCounts(t *testing.T) {
	g := NewTiledGrid3D(GridSize{4, 3}, gridOpts(64, 64))
	if n := len(g.Vertices()); n != 4*4*3 {
		t.Errorf("vertices = %d, want 48", n)
	}
	if n := len(g.Indices()); n != 4*3*6 {
		t.Errorf("indices = %d, want 72", n)
	}
	// No vertex is shared between tiles.
	for q := 0; q < 12; q++ {
		for _, idx := range g.Indices()[q*6 : q*6+6] {
			if int(idx)/4 != q {
				t.Fatalf("tile %d references vertex %d of tile %d", q, idx, idx/4)
			}
		}
	}
}

func TestGridSizeMustBePositive(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for 0x1 grid")
		}
	}()
	NewGrid3D(GridSize{0, 1}, gridOpts(8, 8))
}

func TestGridRectAndStepDefaults(t *testing.T) {
	tex := NewTextureSize(128, 64, 100, 50, true)
	g := NewGrid3D(GridSize{10, 5}, GridOptions{Texture: tex})
	if r := g.GridRect(); r != (Rect{0, 0, 100, 50}) {
		t.Errorf("GridRect = %+v, want content size", r)
	}
	if s := g.Step(); s != (Vec2{10, 10}) {
		t.Errorf("Step = %+v, want {10 10}", s)
	}
	if g.BlendFunc() != BlendFuncAlphaPremultiplied {
		t.Errorf("BlendFunc = %v, want premultiplied", g.BlendFunc())
	}
}

func TestGridStraightAlphaBlend(t *testing.T) {
	g := NewGrid3D(GridSize{1, 1}, GridOptions{Texture: NewTextureSize(8, 8, 8, 8, false)})
	if g.BlendFunc() != BlendFuncAlphaNonPremultiplied {
		t.Errorf("BlendFunc = %v, want non-premultiplied", g.BlendFunc())
	}
}

func TestGridViewSizeCreatesRenderTexture(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, GridOptions{ViewSize: Vec2{100, 60}})
	tex := g.Texture()
	if tex.Width() != 128 || tex.Height() != 64 {
		t.Errorf("texture = %dx%d, want 128x64", tex.Width(), tex.Height())
	}
	if w, h := tex.ContentSize(); w != 100 || h != 60 {
		t.Errorf("content = %dx%d, want 100x60", w, h)
	}
}

// --- Vertex access ---

func TestGrid3DVertexLayout(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	if v := g.Vertex(Vec2{1, 2}); v != (Vec3{10, 20, 0}) {
		t.Errorf("Vertex(1,2) = %v, want (10,20,0)", v)
	}
	if v := g.Vertex(Vec2{2, 0}); v != (Vec3{20, 0, 0}) {
		t.Errorf("Vertex(2,0) = %v, want (20,0,0)", v)
	}
}

func TestGrid3DSetVertexRoundTrip(t *testing.T) {
	g := NewGrid3D(GridSize{3, 3}, gridOpts(30, 30))
	want := Vec3{11, 12, 5}
	g.SetVertex(Vec2{1, 1}, want)
	if got := g.Vertex(Vec2{1, 1}); got != want {
		t.Errorf("Vertex = %v, want %v", got, want)
	}
	if got := g.OriginalVertex(Vec2{1, 1}); got != (Vec3{10, 10, 0}) {
		t.Errorf("OriginalVertex = %v, want (10,10,0)", got)
	}
}

func TestGridPositionPanics(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	tg := NewTiledGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	tests := []struct {
		name string
		fn   func()
	}{
		{"fractional", func() { g.Vertex(Vec2{0.5, 0}) }},
		{"negative", func() { g.Vertex(Vec2{-1, 0}) }},
		{"past edge", func() { g.Vertex(Vec2{3, 0}) }},
		{"tile past edge", func() { tg.Tile(Vec2{2, 0}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestTiledGrid3DTileCorners(t *testing.T) {
	g := NewTiledGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	want := Quad3{{10, 0, 0}, {20, 0, 0}, {10, 10, 0}, {20, 10, 0}}
	if got := g.Tile(Vec2{1, 0}); got != want {
		t.Errorf("Tile(1,0) = %v, want %v", got, want)
	}

	moved := want
	moved[3] = Vec3{25, 15, 3}
	g.SetTile(Vec2{1, 0}, moved)
	if got := g.Tile(Vec2{1, 0}); got != moved {
		t.Errorf("Tile after SetTile = %v, want %v", got, moved)
	}
	if got := g.OriginalTile(Vec2{1, 0}); got != want {
		t.Errorf("OriginalTile = %v, want %v", got, want)
	}
	// Neighbors are independent.
	if got := g.Tile(Vec2{1, 1}); got[0] != (Vec3{10, 10, 0}) {
		t.Errorf("neighbor corner = %v, want (10,10,0)", got[0])
	}
}

// --- Texture coordinates ---

func TestGrid3DIdentityUV(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	for i, v := range g.Vertices() {
		uv := g.TexCoords()[i]
		if uv[0] != v[0]/20 || uv[1] != v[1]/20 {
			t.Errorf("uv[%d] = %v, want (%v,%v)", i, uv, v[0]/20, v[1]/20)
		}
	}
}

func TestGrid3DFlippedUV(t *testing.T) {
	tex := NewTextureSize(32, 32, 20, 20, true)
	g := NewGrid3D(GridSize{2, 2}, GridOptions{Texture: tex, Flipped: true})
	i := g.vertexIndex(Vec2{0, 0})
	if uv := g.TexCoords()[i]; uv[1] != 20.0/32 {
		t.Errorf("top-left v = %v, want %v", uv[1], 20.0/32)
	}

	g.SetTextureFlipped(false)
	if uv := g.TexCoords()[i]; uv[1] != 0 {
		t.Errorf("after unflip v = %v, want 0", uv[1])
	}
}

func TestTiledGrid3DFlippedUV(t *testing.T) {
	g := NewTiledGrid3D(GridSize{1, 1}, GridOptions{Texture: testTexture(10, 10), Flipped: true})
	tc := g.TexCoords()
	if tc[0][1] != 1 || tc[2][1] != 0 {
		t.Errorf("v = (%v, %v), want (1, 0)", tc[0][1], tc[2][1])
	}
}

// --- Reuse ---

func TestGridReuseAdoptsVertices(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	g.Reuse(2)

	g.SetVertex(Vec2{1, 1}, Vec3{1, 1, 1})
	g.Rebuild()
	if got := g.OriginalVertex(Vec2{1, 1}); got != (Vec3{1, 1, 1}) {
		t.Errorf("after first rebuild original = %v, want (1,1,1)", got)
	}

	g.SetVertex(Vec2{1, 1}, Vec3{2, 2, 2})
	g.Rebuild()
	if got := g.OriginalVertex(Vec2{1, 1}); got != (Vec3{2, 2, 2}) {
		t.Errorf("after second rebuild original = %v, want (2,2,2)", got)
	}
	if g.ReuseCount() != 0 {
		t.Errorf("ReuseCount = %d, want 0", g.ReuseCount())
	}

	g.SetVertex(Vec2{1, 1}, Vec3{3, 3, 3})
	g.Rebuild()
	if got := g.OriginalVertex(Vec2{1, 1}); got != (Vec3{2, 2, 2}) {
		t.Errorf("exhausted rebuild changed original to %v", got)
	}
}

func TestTiledGridReuse(t *testing.T) {
	g := NewTiledGrid3D(GridSize{1, 1}, gridOpts(10, 10))
	g.Reuse(1)
	q := g.Tile(Vec2{0, 0})
	q[0] = Vec3{-1, -1, 0}
	g.SetTile(Vec2{0, 0}, q)
	g.Rebuild()
	if got := g.OriginalTile(Vec2{0, 0}); got != q {
		t.Errorf("OriginalTile = %v, want %v", got, q)
	}
}

func TestGridRegenerateDiscardsEdits(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(20, 20))
	g.SetVertex(Vec2{1, 1}, Vec3{99, 99, 9})
	g.Regenerate()
	if got := g.Vertex(Vec2{1, 1}); got != (Vec3{10, 10, 0}) {
		t.Errorf("Vertex = %v, want flat (10,10,0)", got)
	}
}

func TestSetGridRectMovesMesh(t *testing.T) {
	g := NewGrid3D(GridSize{2, 2}, gridOpts(64, 64))
	g.SetGridRect(Rect{10, 10, 40, 20})
	if s := g.Step(); s != (Vec2{20, 10}) {
		t.Errorf("Step = %+v, want {20 10}", s)
	}
	if v := g.Vertex(Vec2{2, 2}); v != (Vec3{50, 30, 0}) {
		t.Errorf("corner = %v, want (50,30,0)", v)
	}
}

// --- Capture ---

func TestGridCaptureRestoresDeviceState(t *testing.T) {
	s := NewScene()
	n := NewNode("captured")
	tex := NewTextureSize(128, 128, 100, 80, true)
	g := NewGrid3D(GridSize{2, 2}, GridOptions{Texture: tex})
	g.SetActive(true)
	n.Grid = g
	n.Drawable = NewSkeletonRenderer(newQuadRig(testTexture(32, 32), 1))
	s.Root().AddChild(n)

	d := newFakeDevice(800, 600)
	s.DrawTo(d)

	if d.target != nil {
		t.Error("render target not restored")
	}
	if d.projection != Projection3D {
		t.Errorf("projection = %d, want 3D", d.projection)
	}
	if d.viewport != (Rect{Width: 800, Height: 600}) {
		t.Errorf("viewport = %+v, want 800x600", d.viewport)
	}
	if len(d.targets) != 2 || d.targets[0] != tex || d.targets[1] != nil {
		t.Errorf("target history = %v, want [capture, screen]", d.targets)
	}

	want := []string{"projection:1", "viewport:100x80", "target:true", "clear", "draw",
		"projection:0", "viewport:800x600", "target:false", "draw"}
	if !slices.Equal(d.events, want) {
		t.Errorf("events =\n%v\nwant\n%v", d.events, want)
	}
	if len(d.calls) != 2 || d.calls[1].Texture != tex {
		t.Fatal("composite should draw the capture texture last")
	}
	if len(d.calls[1].Vertices) != 9 || d.calls[1].Depth != nil {
		t.Errorf("composite = %d vertices, depth %v; want 9 flat", len(d.calls[1].Vertices), d.calls[1].Depth)
	}
}

func TestGridCompositeCarriesDepthAndState(t *testing.T) {
	s := NewScene()
	n := NewNode("captured")
	g := NewGrid3D(GridSize{1, 1}, gridOpts(16, 16))
	g.SetActive(true)
	g.NeedDepthTest = true
	g.SetVertex(Vec2{1, 1}, Vec3{16, 16, 4})
	n.Grid = g
	s.Root().AddChild(n)

	var depthDuringBlit bool
	d := &depthProbe{fakeDevice: newFakeDevice(16, 16), seen: &depthDuringBlit}
	s.DrawTo(d)

	if !depthDuringBlit {
		t.Error("depth test should be on while compositing")
	}
	if d.depthTest || d.depthWrite {
		t.Error("depth state not restored after composite")
	}
	if got := d.calls[0].Depth; len(got) != 4 || got[g.vertexIndex(Vec2{1, 1})] != 4 {
		t.Errorf("depth = %v, want 4 at the moved corner", got)
	}
}

// depthProbe records whether depth testing is enabled when a draw happens.
type depthProbe struct {
	*fakeDevice
	seen *bool
}

func (d *depthProbe) DrawTriangles(call *DrawCall) {
	if d.depthTest && d.depthWrite {
		*d.seen = true
	}
	d.fakeDevice.DrawTriangles(call)
}

func TestInactiveGridDrawsStraight(t *testing.T) {
	s := NewScene()
	n := NewNode("plain")
	n.Grid = NewGrid3D(GridSize{2, 2}, gridOpts(64, 64))
	n.Drawable = NewSkeletonRenderer(newQuadRig(testTexture(32, 32), 1))
	s.Root().AddChild(n)

	d := newFakeDevice(64, 64)
	s.DrawTo(d)
	if len(d.targets) != 0 {
		t.Errorf("inactive grid switched targets: %v", d.targets)
	}
	if len(d.calls) != 1 {
		t.Errorf("draw calls = %d, want 1", len(d.calls))
	}
}
