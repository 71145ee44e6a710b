package thicket

// Clipper clips skeleton triangles against the polygon of a
// ClippingAttachment. It holds at most one active clip region: a second
// ClipStart replaces the first.
type Clipper struct {
	clip    *ClippingAttachment
	polygon []float32
	pieces  [][]float32

	clippedVertices  []float32
	clippedUVs       []float32
	clippedTriangles []uint16

	shared []int32
	input  []float32
	output []float32
}

// ClipStart begins clipping with clip's polygon transformed by slot's bone.
// It returns the number of convex pieces the region was split into; zero
// means the polygon was degenerate and clipping did not start.
func (c *Clipper) ClipStart(slot *Slot, clip *ClippingAttachment) int {
	if len(clip.Vertices) < 6 {
		return 0
	}
	c.polygon = clip.ComputeWorldVertices(slot, c.polygon[:0])
	makePositive(c.polygon)
	if signedArea(c.polygon) <= geomEpsilon {
		c.ClipEndAll()
		return 0
	}
	c.clip = clip
	c.pieces = convexDecompose(c.polygon)
	return len(c.pieces)
}

// ClipEnd stops clipping if slot is the active clip's end slot.
func (c *Clipper) ClipEnd(slot *Slot) {
	if c.clip != nil && c.clip.EndSlot == slot {
		c.ClipEndAll()
	}
}

// ClipEndAll stops clipping unconditionally.
func (c *Clipper) ClipEndAll() {
	c.clip = nil
	c.pieces = c.pieces[:0]
	c.clippedVertices = c.clippedVertices[:0]
	c.clippedUVs = c.clippedUVs[:0]
	c.clippedTriangles = c.clippedTriangles[:0]
}

// IsClipping reports whether a clip region is active.
func (c *Clipper) IsClipping() bool { return c.clip != nil }

// ClippedVertices returns the xy pairs produced by the last ClipTriangles.
func (c *Clipper) ClippedVertices() []float32 { return c.clippedVertices }

// ClippedUVs returns one uv pair per clipped vertex.
func (c *Clipper) ClippedUVs() []float32 { return c.clippedUVs }

// ClippedTriangles returns index triples into ClippedVertices.
func (c *Clipper) ClippedTriangles() []uint16 { return c.clippedTriangles }

// ClipTriangles intersects each triangle of (vertices, triangles) with the
// clip region. vertices and uvs are xy pairs with one pair per vertex.
// Triangles entirely inside a piece are kept as-is and share output
// vertices, so unclipped geometry keeps its vertex count.
func (c *Clipper) ClipTriangles(vertices []float32, triangles []uint16, uvs []float32) {
	c.clippedVertices = c.clippedVertices[:0]
	c.clippedUVs = c.clippedUVs[:0]
	c.clippedTriangles = c.clippedTriangles[:0]
	if c.clip == nil {
		return
	}

	n := len(vertices) / 2
	if cap(c.shared) < n {
		c.shared = make([]int32, n)
	}
	c.shared = c.shared[:n]
	for i := range c.shared {
		c.shared[i] = -1
	}

	for t := 0; t+2 < len(triangles); t += 3 {
		i1, i2, i3 := int(triangles[t]), int(triangles[t+1]), int(triangles[t+2])
		x1, y1 := vertices[i1*2], vertices[i1*2+1]
		x2, y2 := vertices[i2*2], vertices[i2*2+1]
		x3, y3 := vertices[i3*2], vertices[i3*2+1]

		for _, piece := range c.pieces {
			poly, clipped := c.clipTriangle(x1, y1, x2, y2, x3, y3, piece)
			if !clipped {
				c.emitShared(i1, vertices, uvs)
				c.emitShared(i2, vertices, uvs)
				c.emitShared(i3, vertices, uvs)
				break
			}
			if len(poly) < 6 {
				continue
			}
			c.emitPolygon(poly, [6]float32{x1, y1, x2, y2, x3, y3},
				[6]float32{uvs[i1*2], uvs[i1*2+1], uvs[i2*2], uvs[i2*2+1], uvs[i3*2], uvs[i3*2+1]})
		}
	}
}

// emitShared appends a reference to original vertex i, adding it to the
// output the first time it is seen.
func (c *Clipper) emitShared(i int, vertices, uvs []float32) {
	if c.shared[i] < 0 {
		c.shared[i] = int32(len(c.clippedVertices) / 2)
		c.clippedVertices = append(c.clippedVertices, vertices[i*2], vertices[i*2+1])
		c.clippedUVs = append(c.clippedUVs, uvs[i*2], uvs[i*2+1])
	}
	c.clippedTriangles = append(c.clippedTriangles, uint16(c.shared[i]))
}

// emitPolygon appends the convex polygon poly as a triangle fan, with UVs
// interpolated barycentrically from the source triangle.
func (c *Clipper) emitPolygon(poly []float32, tri, triUV [6]float32) {
	x1, y1, x2, y2, x3, y3 := tri[0], tri[1], tri[2], tri[3], tri[4], tri[5]
	d0 := y2 - y3
	d1 := x3 - x2
	d2 := x1 - x3
	d4 := y3 - y1
	den := d0*d2 + d1*(y1-y3)
	if den > -1e-9 && den < 1e-9 {
		return
	}
	inv := 1 / den

	base := len(c.clippedVertices) / 2
	k := len(poly) / 2
	for i := 0; i < k; i++ {
		x, y := poly[i*2], poly[i*2+1]
		c0, c1 := x-x3, y-y3
		a := (d0*c0 + d1*c1) * inv
		b := (d4*c0 + d2*c1) * inv
		w := 1 - a - b
		c.clippedVertices = append(c.clippedVertices, x, y)
		c.clippedUVs = append(c.clippedUVs,
			triUV[0]*a+triUV[2]*b+triUV[4]*w,
			triUV[1]*a+triUV[3]*b+triUV[5]*w)
	}
	for i := 1; i+1 < k; i++ {
		c.clippedTriangles = append(c.clippedTriangles, uint16(base), uint16(base+i), uint16(base+i+1))
	}
}

// clipTriangle runs Sutherland-Hodgman of one triangle against one convex
// positive piece. clipped is false when no vertex fell outside any edge.
// The returned slice is scratch owned by c.
func (c *Clipper) clipTriangle(x1, y1, x2, y2, x3, y3 float32, piece []float32) (poly []float32, clipped bool) {
	in := append(c.input[:0], x1, y1, x2, y2, x3, y3)
	out := c.output[:0]
	edges := len(piece) / 2
	for e := 0; e < edges && len(in) > 0; e++ {
		ax, ay := piece[e*2], piece[e*2+1]
		f := (e + 1) % edges
		bx, by := piece[f*2], piece[f*2+1]

		out = out[:0]
		m := len(in) / 2
		px, py := in[(m-1)*2], in[(m-1)*2+1]
		sp := cross(ax, ay, bx, by, px, py)
		for i := 0; i < m; i++ {
			cx, cy := in[i*2], in[i*2+1]
			sc := cross(ax, ay, bx, by, cx, cy)
			prevIn, curIn := sp >= -geomEpsilon, sc >= -geomEpsilon
			switch {
			case curIn && prevIn:
				out = append(out, cx, cy)
			case curIn:
				t := sp / (sp - sc)
				out = append(out, px+t*(cx-px), py+t*(cy-py), cx, cy)
			case prevIn:
				clipped = true
				t := sp / (sp - sc)
				out = append(out, px+t*(cx-px), py+t*(cy-py))
			default:
				clipped = true
			}
			px, py, sp = cx, cy, sc
		}
		in, out = out, in
	}
	c.input, c.output = in, out
	return in, clipped
}
