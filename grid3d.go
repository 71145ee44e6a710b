package thicket

import "golang.org/x/image/math/f32"

// --- Grid3D ---

// Grid3D is a uniform distortion mesh of (W+1)*(H+1) shared vertices.
// Moving one vertex displaces every cell that shares it.
type Grid3D struct {
	GridBase

	vertices         []Vec3
	originalVertices []Vec3
	texCoords        []f32.Vec2
	indices          []uint16
}

// NewGrid3D creates an inactive uniform grid of the given size.
func NewGrid3D(size GridSize, opts GridOptions) *Grid3D {
	g := &Grid3D{}
	g.init(g, size, opts)
	return g
}

// calculateVertexPoints rebuilds the flat mesh over gridRect. Vertices are
// laid out column-major: vertex (x, y) lives at x*(H+1)+y.
func (g *Grid3D) calculateVertexPoints() {
	w, h := g.gridSize.W, g.gridSize.H
	texW, texH := float32(g.texture.Width()), float32(g.texture.Height())
	_, contentH := g.texture.ContentSize()
	imageH := float32(contentH)

	numVerts := (w + 1) * (h + 1)
	g.vertices = make([]Vec3, numVerts)
	g.originalVertices = make([]Vec3, numVerts)
	g.texCoords = make([]f32.Vec2, numVerts)
	g.indices = make([]uint16, w*h*6)

	stepX, stepY := float32(g.step.X), float32(g.step.Y)
	ox, oy := float32(g.gridRect.X), float32(g.gridRect.Y)

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			idx := y*w + x

			x1 := float32(x)*stepX + ox
			x2 := x1 + stepX
			y1 := float32(y)*stepY + oy
			y2 := y1 + stepY

			a := x*(h+1) + y
			b := (x+1)*(h+1) + y
			c := (x+1)*(h+1) + (y + 1)
			d := x*(h+1) + (y + 1)

			copy(g.indices[idx*6:], []uint16{
				uint16(a), uint16(b), uint16(d),
				uint16(b), uint16(c), uint16(d),
			})

			corners := [4]int{a, b, c, d}
			pts := [4]Vec3{{x1, y1, 0}, {x2, y1, 0}, {x2, y2, 0}, {x1, y2, 0}}
			for i, vi := range corners {
				g.vertices[vi] = pts[i]
				v := pts[i][1] / texH
				if g.flipped {
					v = (imageH - pts[i][1]) / texH
				}
				g.texCoords[vi] = f32.Vec2{pts[i][0] / texW, v}
			}
		}
	}
	copy(g.originalVertices, g.vertices)
}

func (g *Grid3D) meshData() ([]Vec3, []f32.Vec2, []uint16) {
	return g.vertices, g.texCoords, g.indices
}

// Vertex returns the current position of the vertex at integer grid
// coordinate pos. Panics on non-integer or out-of-range positions.
func (g *Grid3D) Vertex(pos Vec2) Vec3 {
	return g.vertices[g.vertexIndex(pos)]
}

// OriginalVertex returns the baseline position of the vertex at pos.
func (g *Grid3D) OriginalVertex(pos Vec2) Vec3 {
	return g.originalVertices[g.vertexIndex(pos)]
}

// SetVertex moves the vertex at pos.
func (g *Grid3D) SetVertex(pos Vec2, v Vec3) {
	g.vertices[g.vertexIndex(pos)] = v
}

// Rebuild consumes one reuse: while the countdown is positive the current
// vertices become the new baseline.
func (g *Grid3D) Rebuild() {
	if g.reuseGrid > 0 {
		copy(g.originalVertices, g.vertices)
		g.reuseGrid--
	}
}

// Vertices returns the current vertex buffer. Callers must not resize it.
func (g *Grid3D) Vertices() []Vec3 { return g.vertices }

// OriginalVertices returns the baseline vertex buffer.
func (g *Grid3D) OriginalVertices() []Vec3 { return g.originalVertices }

// TexCoords returns the normalized texture coordinates per vertex.
func (g *Grid3D) TexCoords() []f32.Vec2 { return g.texCoords }

// Indices returns the triangle list.
func (g *Grid3D) Indices() []uint16 { return g.indices }

func (g *Grid3D) vertexIndex(pos Vec2) int {
	x, y := checkGridPos(pos, g.gridSize.W, g.gridSize.H)
	return x*(g.gridSize.H+1) + y
}

// --- TiledGrid3D ---

// TiledGrid3D is a distortion mesh of independent quads, four vertices per
// cell, so each tile can move without affecting its neighbors.
type TiledGrid3D struct {
	GridBase

	vertices         []Vec3
	originalVertices []Vec3
	texCoords        []f32.Vec2
	indices          []uint16
}

// NewTiledGrid3D creates an inactive tiled grid of the given size.
func NewTiledGrid3D(size GridSize, opts GridOptions) *TiledGrid3D {
	g := &TiledGrid3D{}
	g.init(g, size, opts)
	return g
}

// calculateVertexPoints rebuilds one flat quad per tile. Tile (x, y) is
// quad x*H+y; its corners are (x1,y1), (x2,y1), (x1,y2), (x2,y2).
func (g *TiledGrid3D) calculateVertexPoints() {
	w, h := g.gridSize.W, g.gridSize.H
	texW, texH := float32(g.texture.Width()), float32(g.texture.Height())
	_, contentH := g.texture.ContentSize()
	imageH := float32(contentH)

	numQuads := w * h
	g.vertices = make([]Vec3, numQuads*4)
	g.originalVertices = make([]Vec3, numQuads*4)
	g.texCoords = make([]f32.Vec2, numQuads*4)
	g.indices = make([]uint16, numQuads*6)

	stepX, stepY := float32(g.step.X), float32(g.step.Y)
	ox, oy := float32(g.gridRect.X), float32(g.gridRect.Y)

	vi := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			x1 := float32(x)*stepX + ox
			x2 := x1 + stepX
			y1 := float32(y)*stepY + oy
			y2 := y1 + stepY

			g.vertices[vi+0] = Vec3{x1, y1, 0}
			g.vertices[vi+1] = Vec3{x2, y1, 0}
			g.vertices[vi+2] = Vec3{x1, y2, 0}
			g.vertices[vi+3] = Vec3{x2, y2, 0}

			ty1, ty2 := y1, y2
			if g.flipped {
				ty1, ty2 = imageH-y1, imageH-y2
			}
			g.texCoords[vi+0] = f32.Vec2{x1 / texW, ty1 / texH}
			g.texCoords[vi+1] = f32.Vec2{x2 / texW, ty1 / texH}
			g.texCoords[vi+2] = f32.Vec2{x1 / texW, ty2 / texH}
			g.texCoords[vi+3] = f32.Vec2{x2 / texW, ty2 / texH}
			vi += 4
		}
	}

	for q := 0; q < numQuads; q++ {
		base := uint16(q * 4)
		copy(g.indices[q*6:], []uint16{base, base + 1, base + 2, base + 1, base + 2, base + 3})
	}
	copy(g.originalVertices, g.vertices)
}

func (g *TiledGrid3D) meshData() ([]Vec3, []f32.Vec2, []uint16) {
	return g.vertices, g.texCoords, g.indices
}

// Tile returns the current corners of the tile at integer grid coordinate
// pos. Panics on non-integer or out-of-range positions.
func (g *TiledGrid3D) Tile(pos Vec2) Quad3 {
	i := g.tileIndex(pos)
	return Quad3{g.vertices[i], g.vertices[i+1], g.vertices[i+2], g.vertices[i+3]}
}

// OriginalTile returns the baseline corners of the tile at pos.
func (g *TiledGrid3D) OriginalTile(pos Vec2) Quad3 {
	i := g.tileIndex(pos)
	return Quad3{g.originalVertices[i], g.originalVertices[i+1], g.originalVertices[i+2], g.originalVertices[i+3]}
}

// SetTile moves the corners of the tile at pos.
func (g *TiledGrid3D) SetTile(pos Vec2, q Quad3) {
	i := g.tileIndex(pos)
	copy(g.vertices[i:i+4], q[:])
}

// Rebuild consumes one reuse: while the countdown is positive the current
// vertices become the new baseline.
func (g *TiledGrid3D) Rebuild() {
	if g.reuseGrid > 0 {
		copy(g.originalVertices, g.vertices)
		g.reuseGrid--
	}
}

// Vertices returns the current vertex buffer. Callers must not resize it.
func (g *TiledGrid3D) Vertices() []Vec3 { return g.vertices }

// OriginalVertices returns the baseline vertex buffer.
func (g *TiledGrid3D) OriginalVertices() []Vec3 { return g.originalVertices }

// TexCoords returns the normalized texture coordinates per vertex.
func (g *TiledGrid3D) TexCoords() []f32.Vec2 { return g.texCoords }

// Indices returns the triangle list.
func (g *TiledGrid3D) Indices() []uint16 { return g.indices }

func (g *TiledGrid3D) tileIndex(pos Vec2) int {
	x, y := checkGridPos(pos, g.gridSize.W-1, g.gridSize.H-1)
	return (g.gridSize.H*x + y) * 4
}
