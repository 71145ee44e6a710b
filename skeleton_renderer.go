package thicket

import (
	"math"
)

// SkeletonRenderer draws a Skeleton through the frame's shared vertex
// batches. Set it as a Node's Drawable; the node supplies the world
// transform, displayed color and opacity, and global order.
type SkeletonRenderer struct {
	skeleton Skeleton
	clipper  Clipper

	startSlot, endSlot int
	twoColorTint       bool
	premultipliedAlpha bool
	timeScale          float64

	debugSlots        bool
	debugBones        bool
	debugMeshes       bool
	debugBoundingRect bool

	worldCoords []float32
	debugCoords []float32
	debugPrims  []Primitive
	debugPoints []Vec2

	// lastCommand is the final command recorded by the latest Draw, or nil.
	lastCommand *TrianglesCommand
}

// NewSkeletonRenderer creates a single-tint renderer drawing every slot of
// sk with premultiplied vertex colors.
func NewSkeletonRenderer(sk Skeleton) *SkeletonRenderer {
	return &SkeletonRenderer{
		skeleton:           sk,
		startSlot:          0,
		endSlot:            math.MaxInt,
		premultipliedAlpha: true,
		timeScale:          1,
	}
}

// NewSkeletonNode creates a node drawing sk.
func NewSkeletonNode(name string, sk Skeleton) *Node {
	n := NewNode(name)
	n.Drawable = NewSkeletonRenderer(sk)
	return n
}

// Skeleton returns the drawn skeleton.
func (r *SkeletonRenderer) Skeleton() Skeleton { return r.skeleton }

// SetSlotsRange limits drawing to slots whose storage index lies in
// [start, end]. -1 leaves that side unbounded.
func (r *SkeletonRenderer) SetSlotsRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = math.MaxInt
	}
	r.startSlot, r.endSlot = start, end
}

// SlotsRange returns the inclusive storage-index range being drawn.
func (r *SkeletonRenderer) SlotsRange() (start, end int) { return r.startSlot, r.endSlot }

// SetTwoColorTint selects the two-color vertex layout and shader.
func (r *SkeletonRenderer) SetTwoColorTint(enabled bool) { r.twoColorTint = enabled }

// TwoColorTint reports whether two-color tinting is enabled.
func (r *SkeletonRenderer) TwoColorTint() bool { return r.twoColorTint }

// SetPremultipliedAlpha controls whether vertex RGB is multiplied by alpha.
// Match it to the attachments' textures.
func (r *SkeletonRenderer) SetPremultipliedAlpha(v bool) { r.premultipliedAlpha = v }

// PremultipliedAlpha reports whether vertex colors are premultiplied.
func (r *SkeletonRenderer) PremultipliedAlpha() bool { return r.premultipliedAlpha }

// SetTimeScale scales the dt passed to Skeleton.Update.
func (r *SkeletonRenderer) SetTimeScale(s float64) { r.timeScale = s }

// TimeScale returns the update time scale.
func (r *SkeletonRenderer) TimeScale() float64 { return r.timeScale }

// SetDebugSlotsEnabled outlines region attachments.
func (r *SkeletonRenderer) SetDebugSlotsEnabled(v bool) { r.debugSlots = v }

// SetDebugBonesEnabled draws bone lines and origins.
func (r *SkeletonRenderer) SetDebugBonesEnabled(v bool) { r.debugBones = v }

// SetDebugMeshesEnabled draws mesh wireframes.
func (r *SkeletonRenderer) SetDebugMeshesEnabled(v bool) { r.debugMeshes = v }

// SetDebugBoundingRectEnabled outlines the skeleton bounds.
func (r *SkeletonRenderer) SetDebugBoundingRectEnabled(v bool) { r.debugBoundingRect = v }

// FindBone returns the skeleton bone with the given name, or nil.
func (r *SkeletonRenderer) FindBone(name string) *Bone { return findBone(r.skeleton, name) }

// FindSlot returns the skeleton slot with the given name, or nil.
func (r *SkeletonRenderer) FindSlot(name string) *Slot { return findSlot(r.skeleton, name) }

// SetAttachment replaces the attachment of the named slot. It returns false
// if no slot has that name.
func (r *SkeletonRenderer) SetAttachment(slotName string, a Attachment) bool {
	s := r.FindSlot(slotName)
	if s == nil {
		return false
	}
	s.Attachment = a
	return true
}

// Update advances the skeleton by dt scaled by the time scale.
func (r *SkeletonRenderer) Update(dt float64) {
	if r.skeleton != nil {
		r.skeleton.Update(dt * r.timeScale)
	}
}

// BoundingBox returns the skeleton-space bounds of every drawable slot in
// range, or the zero Rect if nothing would be drawn.
func (r *SkeletonRenderer) BoundingBox() Rect {
	if r.skeleton == nil {
		return Rect{}
	}
	n := r.countCoordinates()
	if n == 0 {
		return Rect{}
	}
	r.worldCoords = growFloats(r.worldCoords, n)
	r.computeWorldCoordinates(r.worldCoords)
	return coordBounds(r.worldCoords)
}

// nothingToDraw reports whether slot is skipped this frame. Clipping
// attachments are never skipped so their start and end still happen.
func (r *SkeletonRenderer) nothingToDraw(slot *Slot) bool {
	if slot.Attachment == nil || slot.Index < r.startSlot || slot.Index > r.endSlot {
		return true
	}
	if slot.Bone != nil && !slot.Bone.Active {
		return true
	}
	switch a := slot.Attachment.(type) {
	case *ClippingAttachment:
		return false
	case *RegionAttachment:
		return slot.Color.A == 0 || a.Color.A == 0
	case *MeshAttachment:
		return slot.Color.A == 0 || a.Color.A == 0
	default:
		return slot.Color.A == 0
	}
}

// countCoordinates sums world-vertex floats over slots in storage order.
func (r *SkeletonRenderer) countCoordinates() int {
	total := 0
	for _, slot := range r.skeleton.Slots() {
		if r.nothingToDraw(slot) {
			continue
		}
		switch a := slot.Attachment.(type) {
		case *RegionAttachment:
			total += 8
		case *MeshAttachment:
			total += a.WorldVerticesLength()
		}
	}
	return total
}

// computeWorldCoordinates fills dst with world vertices in draw order.
func (r *SkeletonRenderer) computeWorldCoordinates(dst []float32) {
	off := 0
	for _, slot := range r.skeleton.DrawOrder() {
		if r.nothingToDraw(slot) {
			continue
		}
		switch a := slot.Attachment.(type) {
		case *RegionAttachment:
			a.ComputeWorldVertices(slot.Bone, dst[off:off+8])
			off += 8
		case *MeshAttachment:
			n := a.WorldVerticesLength()
			a.ComputeWorldVertices(slot, dst[off:off+n])
			off += n
		}
	}
}

// Draw records this frame's triangles for the skeleton into ctx.
func (r *SkeletonRenderer) Draw(ctx *FrameContext, n *Node) {
	r.lastCommand = nil
	if r.skeleton == nil {
		return
	}
	nodeColor := n.DisplayedColor()
	skColor := r.skeleton.Color()
	if nodeColor.A == 0 || skColor.A == 0 {
		return
	}

	if r.twoColorTint {
		r.lastCommand = drawSlots[TwoColorVertex](r, ctx, n, ctx.TwoColorBatch, nodeColor, skColor)
		if r.lastCommand != nil && shouldForceFlush(n, ctx.SiblingScanLimit) {
			r.lastCommand.SetForceFlush(true)
		}
	} else {
		r.lastCommand = drawSlots[Vertex](r, ctx, n, ctx.Batch, nodeColor, skColor)
	}

	if r.debugSlots || r.debugBones || r.debugMeshes || r.debugBoundingRect {
		r.drawDebug(ctx, n)
	}
}

// drawSlots is the per-slot pipeline shared by both vertex layouts. It
// returns the last command recorded, or nil.
func drawSlots[V vertexLayout, PV vertexWriter[V]](r *SkeletonRenderer, ctx *FrameContext, n *Node, batch *VertexBatch[V], nodeColor, skColor Color) *TrianglesCommand {
	total := r.countCoordinates()
	if total == 0 {
		return nil
	}
	r.worldCoords = growFloats(r.worldCoords, total)
	r.computeWorldCoordinates(r.worldCoords)

	transform := ctx.Transform
	if ctx.cullingEnabled() && cullRectangle(transform, coordBounds(r.worldCoords), ctx.Camera.Viewport) {
		return nil
	}

	var (
		last     *TrianglesCommand
		offset   int
		darkFlag float64
	)
	if r.premultipliedAlpha {
		darkFlag = 1
	}
	defer r.clipper.ClipEndAll()

	for _, slot := range r.skeleton.DrawOrder() {
		if r.nothingToDraw(slot) {
			r.clipper.ClipEnd(slot)
			continue
		}

		var (
			coords  []float32
			uvs     []float32
			indices []uint16
			tex     *Texture
			color   Color
		)
		switch a := slot.Attachment.(type) {
		case *RegionAttachment:
			coords = r.worldCoords[offset : offset+8]
			offset += 8
			uvs = a.UVs[:]
			indices = quadIndices[:]
			tex = a.Texture
			color = a.Color
		case *MeshAttachment:
			count := a.WorldVerticesLength()
			coords = r.worldCoords[offset : offset+count]
			offset += count
			uvs = a.UVs
			indices = a.Triangles
			tex = a.Texture
			color = a.Color
		case *ClippingAttachment:
			r.clipper.ClipStart(slot, a)
			continue
		default:
			r.clipper.ClipEnd(slot)
			continue
		}

		verts := batch.AllocateVertices(len(coords) / 2)
		for i := range verts {
			PV(&verts[i]).setUV(uvs[i*2], uvs[i*2+1])
			PV(&verts[i]).setPosition(coords[i*2], coords[i*2+1])
		}

		color.A *= nodeColor.A * skColor.A * slot.Color.A
		if color.A == 0 {
			batch.DeallocateVertices(len(verts))
			r.clipper.ClipEnd(slot)
			continue
		}
		color.R *= nodeColor.R * skColor.R * slot.Color.R
		color.G *= nodeColor.G * skColor.G * slot.Color.G
		color.B *= nodeColor.B * skColor.B * slot.Color.B
		if r.premultipliedAlpha {
			color.R *= color.A
			color.G *= color.A
			color.B *= color.A
		}
		dark := Color{A: darkFlag}
		if slot.DarkColor != nil {
			dark.R, dark.G, dark.B = slot.DarkColor.R, slot.DarkColor.G, slot.DarkColor.B
		}
		light8, dark8 := color.RGBA8(), dark.RGBA8()

		premultTex := tex == nil || tex.HasPremultipliedAlpha()
		blend := BlendFuncFor(slot.BlendMode, premultTex)

		if r.clipper.IsClipping() {
			r.clipper.ClipTriangles(coords, indices, uvs)
			batch.DeallocateVertices(len(verts))
			clippedTris := r.clipper.ClippedTriangles()
			if len(clippedTris) == 0 {
				r.clipper.ClipEnd(slot)
				continue
			}
			cv, cuv := r.clipper.ClippedVertices(), r.clipper.ClippedUVs()
			verts = batch.AllocateVertices(len(cv) / 2)
			for i := range verts {
				w := PV(&verts[i])
				w.setPosition(cv[i*2], cv[i*2+1])
				w.setUV(cuv[i*2], cuv[i*2+1])
				w.setColors(light8, dark8)
			}
			indices = batch.AllocateIndices(len(clippedTris))
			copy(indices, clippedTris)
		} else {
			for i := range verts {
				PV(&verts[i]).setColors(light8, dark8)
			}
		}

		last = batch.AddCommand(ctx.Queue, tex, blend, Triangles[V]{Verts: verts, Indices: indices}, transform, n.GlobalOrder)
		last.PremultipliedColors = r.premultipliedAlpha
		r.clipper.ClipEnd(slot)
	}
	return last
}

// cullRectangle reports whether bounds, mapped through m, fall entirely
// outside visible. The bounds' center is tested against visible padded by
// the bounds' half extent in target units.
func cullRectangle(m [6]float64, bounds, visible Rect) bool {
	hw, hh := bounds.Width/2, bounds.Height/2
	cx, cy := transformPoint(m, bounds.X+hw, bounds.Y+hh)
	padX := math.Max(math.Abs(hw*m[0]+hh*m[2]), math.Abs(hw*m[0]-hh*m[2]))
	padY := math.Max(math.Abs(hw*m[1]+hh*m[3]), math.Abs(hw*m[1]-hh*m[3]))
	padded := Rect{
		X:      visible.X - padX,
		Y:      visible.Y - padY,
		Width:  visible.Width + 2*padX,
		Height: visible.Height + 2*padY,
	}
	return !padded.Contains(cx, cy)
}

// coordBounds returns the bounding rectangle of xy pairs.
func coordBounds(coords []float32) Rect {
	if len(coords) < 2 {
		return Rect{}
	}
	minX, minY := coords[0], coords[1]
	maxX, maxY := minX, minY
	for i := 2; i+1 < len(coords); i += 2 {
		x, y := coords[i], coords[i+1]
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return Rect{float64(minX), float64(minY), float64(maxX - minX), float64(maxY - minY)}
}

// growFloats returns buf resized to n, reallocating only when capacity is short.
func growFloats(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
