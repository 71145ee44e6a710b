package thicket

// Debug overlay colors.
var (
	debugBoundsColor = Color{0, 1, 0, 1}
	debugSlotColor   = Color{0, 0, 1, 1}
	debugBoneColor   = Color{1, 0, 0, 1}
	debugRootColor   = Color{0, 0, 1, 1}
	debugJointColor  = Color{0, 1, 0, 1}
	debugMeshColor   = Color{1, 1, 0, 1}
)

// drawDebug records a callback that draws the enabled overlays on top of
// the skeleton. It reads world vertices the same way Draw does but never
// touches the batches or the clipper.
func (r *SkeletonRenderer) drawDebug(ctx *FrameContext, n *Node) {
	m := ctx.Transform
	r.debugPrims = r.debugPrims[:0]
	r.debugPoints = r.debugPoints[:0]

	// Points are appended to one shared buffer first and sliced into
	// primitives afterwards, since appends may move it.
	type span struct {
		kind       PrimitiveKind
		start, end int
		color      Color
		size       float64
	}
	var spans []span
	add := func(kind PrimitiveKind, color Color, size float64, coords []float32) {
		start := len(r.debugPoints)
		for i := 0; i+1 < len(coords); i += 2 {
			x, y := transformPoint(m, float64(coords[i]), float64(coords[i+1]))
			r.debugPoints = append(r.debugPoints, Vec2{x, y})
		}
		spans = append(spans, span{kind, start, len(r.debugPoints), color, size})
	}

	if r.debugBoundingRect {
		if bb := r.BoundingBox(); bb.Width > 0 || bb.Height > 0 {
			x0, y0 := float32(bb.X), float32(bb.Y)
			x1, y1 := float32(bb.X+bb.Width), float32(bb.Y+bb.Height)
			add(PrimitivePolygon, debugBoundsColor, 1, []float32{x0, y0, x1, y0, x1, y1, x0, y1})
		}
	}

	if r.debugSlots || r.debugMeshes {
		for _, slot := range r.skeleton.DrawOrder() {
			if r.nothingToDraw(slot) {
				continue
			}
			switch a := slot.Attachment.(type) {
			case *RegionAttachment:
				if !r.debugSlots {
					continue
				}
				r.debugCoords = growFloats(r.debugCoords, 8)
				a.ComputeWorldVertices(slot.Bone, r.debugCoords)
				add(PrimitivePolygon, debugSlotColor, 1, r.debugCoords)
			case *MeshAttachment:
				if !r.debugMeshes {
					continue
				}
				r.debugCoords = growFloats(r.debugCoords, a.WorldVerticesLength())
				a.ComputeWorldVertices(slot, r.debugCoords)
				var tri [6]float32
				for t := 0; t+2 < len(a.Triangles); t += 3 {
					for k := 0; k < 3; k++ {
						idx := int(a.Triangles[t+k])
						tri[k*2], tri[k*2+1] = r.debugCoords[idx*2], r.debugCoords[idx*2+1]
					}
					add(PrimitivePolygon, debugMeshColor, 1, tri[:])
				}
			}
		}
	}

	if r.debugBones {
		bones := r.skeleton.Bones()
		for _, b := range bones {
			if !b.Active {
				continue
			}
			tx, ty := b.Tip()
			add(PrimitiveLine, debugBoneColor, 2, []float32{float32(b.WorldX), float32(b.WorldY), float32(tx), float32(ty)})
		}
		for i, b := range bones {
			if !b.Active {
				continue
			}
			c := debugJointColor
			if i == 0 {
				c = debugRootColor
			}
			add(PrimitivePoint, c, 8, []float32{float32(b.WorldX), float32(b.WorldY)})
		}
	}

	if len(spans) == 0 {
		return
	}
	for _, s := range spans {
		r.debugPrims = append(r.debugPrims, Primitive{
			Kind:   s.kind,
			Points: r.debugPoints[s.start:s.end],
			Color:  s.color,
			Size:   s.size,
		})
	}
	prims := r.debugPrims
	ctx.Queue.AddCallback(n.GlobalOrder, func(d Device) {
		d.DrawPrimitives(prims)
	})
}
