package thicket

// Polygon helpers for clip regions. Polygons are flat xy pairs. "Positive"
// winding means a positive shoelace area, which is clockwise on screen
// (Y down); its interior lies on the positive side of every edge.

const geomEpsilon = 1e-5

// signedArea returns twice the shoelace area of poly.
func signedArea(poly []float32) float32 {
	n := len(poly) / 2
	var area float32
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += poly[i*2]*poly[j*2+1] - poly[j*2]*poly[i*2+1]
	}
	return area
}

// makePositive reverses poly in place if its winding is negative.
func makePositive(poly []float32) {
	if signedArea(poly) >= 0 {
		return
	}
	n := len(poly) / 2
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		poly[i*2], poly[j*2] = poly[j*2], poly[i*2]
		poly[i*2+1], poly[j*2+1] = poly[j*2+1], poly[i*2+1]
	}
}

// cross returns the z of (b-a) x (p-a).
func cross(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// isConvex reports whether the positive polygon poly turns the same way at
// every vertex. Collinear vertices are allowed.
func isConvex(poly []float32) bool {
	n := len(poly) / 2
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b, c := i, (i+1)%n, (i+2)%n
		if cross(poly[a*2], poly[a*2+1], poly[b*2], poly[b*2+1], poly[c*2], poly[c*2+1]) < -geomEpsilon {
			return false
		}
	}
	return true
}

// triangulate ear-clips the positive simple polygon poly and appends the
// vertex index triples to dst.
func triangulate(poly []float32, dst []int) []int {
	n := len(poly) / 2
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	pt := func(i int) (float32, float32) { return poly[i*2], poly[i*2+1] }

	for len(remaining) > 3 {
		m := len(remaining)
		found := false
		for i := 0; i < m; i++ {
			p, c, nx := remaining[(i+m-1)%m], remaining[i], remaining[(i+1)%m]
			px, py := pt(p)
			cx, cy := pt(c)
			nxx, nxy := pt(nx)
			if cross(px, py, cx, cy, nxx, nxy) <= geomEpsilon {
				continue // reflex or degenerate corner
			}
			ear := true
			for _, o := range remaining {
				if o == p || o == c || o == nx {
					continue
				}
				ox, oy := pt(o)
				if pointInTriangle(ox, oy, px, py, cx, cy, nxx, nxy) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			dst = append(dst, p, c, nx)
			remaining = append(remaining[:i], remaining[i+1:]...)
			found = true
			break
		}
		if !found {
			// Self-intersecting or fully degenerate: fan the rest.
			for i := 1; i+1 < len(remaining); i++ {
				dst = append(dst, remaining[0], remaining[i], remaining[i+1])
			}
			return dst
		}
	}
	if len(remaining) == 3 {
		dst = append(dst, remaining[0], remaining[1], remaining[2])
	}
	return dst
}

// pointInTriangle reports whether p lies inside or on the positive triangle abc.
func pointInTriangle(px, py, ax, ay, bx, by, cx, cy float32) bool {
	return cross(ax, ay, bx, by, px, py) >= 0 &&
		cross(bx, by, cx, cy, px, py) >= 0 &&
		cross(cx, cy, ax, ay, px, py) >= 0
}

// convexDecompose splits the positive polygon poly into convex positive
// pieces by triangulating it and greedily merging triangles across shared
// edges while the union stays convex. Each piece is returned as xy pairs.
func convexDecompose(poly []float32) [][]float32 {
	if isConvex(poly) {
		return [][]float32{append([]float32(nil), poly...)}
	}
	tris := triangulate(poly, nil)
	pieces := make([][]int, 0, len(tris)/3)
	for i := 0; i+2 < len(tris); i += 3 {
		pieces = append(pieces, []int{tris[i], tris[i+1], tris[i+2]})
	}

	isConvexPiece := func(p []int) bool {
		n := len(p)
		for i := 0; i < n; i++ {
			a, b, c := p[i], p[(i+1)%n], p[(i+2)%n]
			if cross(poly[a*2], poly[a*2+1], poly[b*2], poly[b*2+1], poly[c*2], poly[c*2+1]) < -geomEpsilon {
				return false
			}
		}
		return true
	}

	for merged := true; merged; {
		merged = false
		for i := 0; i < len(pieces) && !merged; i++ {
			for j := i + 1; j < len(pieces); j++ {
				u, ok := mergeAlongEdge(pieces[i], pieces[j])
				if !ok || !isConvexPiece(u) {
					continue
				}
				pieces[i] = u
				pieces = append(pieces[:j], pieces[j+1:]...)
				merged = true
				break
			}
		}
	}

	out := make([][]float32, len(pieces))
	for i, p := range pieces {
		xy := make([]float32, 0, len(p)*2)
		for _, idx := range p {
			xy = append(xy, poly[idx*2], poly[idx*2+1])
		}
		out[i] = xy
	}
	return out
}

// mergeAlongEdge joins two same-winding index loops that share an edge
// (u->v in a, v->u in b).
func mergeAlongEdge(a, b []int) ([]int, bool) {
	for i := range a {
		u, v := a[i], a[(i+1)%len(a)]
		for j := range b {
			if b[j] != v || b[(j+1)%len(b)] != u {
				continue
			}
			out := make([]int, 0, len(a)+len(b)-2)
			for k := 1; k <= len(a); k++ {
				out = append(out, a[(i+k)%len(a)])
			}
			for k := 2; k < len(b); k++ {
				out = append(out, b[(j+k)%len(b)])
			}
			return out, true
		}
	}
	return nil, false
}
