package thicket

// AtlasQuad places one atlas item in node space.
type AtlasQuad struct {
	// Item is the item index, counted left to right then top to bottom.
	Item int
	// Dst is the destination rectangle in node space.
	Dst Rect
}

// AtlasNode draws a list of fixed-size items cut from one texture, e.g. a
// tile layer or a bitmap-font label. Every quad goes through the frame's
// single-tint batch, so consecutive atlas nodes sharing a texture merge into
// one draw call.
type AtlasNode struct {
	texture          *Texture
	itemW, itemH     int
	itemsPerRow      int
	itemsPerColumn   int
	quads            []AtlasQuad
	quadsToDraw      int
	opacityModifyRGB bool
	blend            BlendFunc

	// Color tints every quad on top of the node's displayed color.
	Color Color
}

// NewAtlasNode creates an atlas drawing itemW x itemH items from tex.
func NewAtlasNode(tex *Texture, itemW, itemH int) *AtlasNode {
	if itemW <= 0 || itemH <= 0 {
		panic("thicket: atlas item size must be positive")
	}
	a := &AtlasNode{itemW: itemW, itemH: itemH, Color: ColorWhite}
	a.SetTexture(tex)
	return a
}

// Texture returns the atlas texture.
func (a *AtlasNode) Texture() *Texture { return a.texture }

// SetTexture swaps the texture and refreshes the item grid, blend func and
// opacity-modify-RGB flag from it.
func (a *AtlasNode) SetTexture(tex *Texture) {
	a.texture = tex
	a.itemsPerRow, a.itemsPerColumn = 0, 0
	if tex != nil {
		cw, ch := tex.ContentSize()
		a.itemsPerRow = cw / a.itemW
		a.itemsPerColumn = ch / a.itemH
	}
	a.updateBlendFunc()
	a.updateOpacityModifyRGB()
}

// ItemsPerRow returns the number of items across the texture.
func (a *AtlasNode) ItemsPerRow() int { return a.itemsPerRow }

// ItemsPerColumn returns the number of items down the texture.
func (a *AtlasNode) ItemsPerColumn() int { return a.itemsPerColumn }

// SetQuads replaces the quad list and draws all of it.
func (a *AtlasNode) SetQuads(quads []AtlasQuad) {
	a.quads = append(a.quads[:0], quads...)
	a.quadsToDraw = len(a.quads)
}

// Quads returns the quad list. The returned slice MUST NOT be mutated.
func (a *AtlasNode) Quads() []AtlasQuad { return a.quads }

// SetQuadsToDraw limits drawing to the first n quads.
func (a *AtlasNode) SetQuadsToDraw(n int) {
	a.quadsToDraw = max(0, min(n, len(a.quads)))
}

// QuadsToDraw returns the number of quads drawn.
func (a *AtlasNode) QuadsToDraw() int { return a.quadsToDraw }

// OpacityModifyRGB reports whether vertex colors are premultiplied by the
// displayed opacity. It follows the texture's premultiplied flag.
func (a *AtlasNode) OpacityModifyRGB() bool { return a.opacityModifyRGB }

// SetOpacityModifyRGB overrides the flag derived from the texture.
func (a *AtlasNode) SetOpacityModifyRGB(v bool) { a.opacityModifyRGB = v }

// BlendFunc returns the blend function used for drawing.
func (a *AtlasNode) BlendFunc() BlendFunc { return a.blend }

// SetBlendFunc overrides the blend function derived from the texture.
func (a *AtlasNode) SetBlendFunc(b BlendFunc) { a.blend = b }

func (a *AtlasNode) updateBlendFunc() {
	if a.texture == nil || a.texture.HasPremultipliedAlpha() {
		a.blend = BlendFuncAlphaPremultiplied
	} else {
		a.blend = BlendFuncAlphaNonPremultiplied
	}
}

func (a *AtlasNode) updateOpacityModifyRGB() {
	a.opacityModifyRGB = a.texture != nil && a.texture.HasPremultipliedAlpha()
}

// itemUVs returns the normalized texture rectangle of item i.
func (a *AtlasNode) itemUVs(i int) (u0, v0, u1, v1 float32) {
	col, row := i%a.itemsPerRow, i/a.itemsPerRow
	tw, th := float32(a.texture.Width()), float32(a.texture.Height())
	x, y := float32(col*a.itemW), float32(row*a.itemH)
	return x / tw, y / th, (x + float32(a.itemW)) / tw, (y + float32(a.itemH)) / th
}

// Draw records the first QuadsToDraw quads.
func (a *AtlasNode) Draw(ctx *FrameContext, n *Node) {
	count := min(a.quadsToDraw, len(a.quads))
	if count == 0 || a.texture == nil || a.itemsPerRow == 0 {
		return
	}
	c := n.DisplayedColor().Mul(a.Color)
	if c.A == 0 {
		return
	}
	if a.opacityModifyRGB {
		c.R *= c.A
		c.G *= c.A
		c.B *= c.A
	}
	rgba := c.RGBA8()
	maxItem := a.itemsPerRow * a.itemsPerColumn

	verts := ctx.Batch.AllocateVertices(count * 4)
	inds := ctx.Batch.AllocateIndices(count * 6)
	drawn := 0
	for _, q := range a.quads[:count] {
		if q.Item < 0 || q.Item >= maxItem {
			continue
		}
		u0, v0, u1, v1 := a.itemUVs(q.Item)
		x0, y0 := float32(q.Dst.X), float32(q.Dst.Y)
		x1, y1 := float32(q.Dst.X+q.Dst.Width), float32(q.Dst.Y+q.Dst.Height)
		v := verts[drawn*4 : drawn*4+4]
		v[0] = Vertex{X: x0, Y: y0, U: u0, V: v0, Color: rgba}
		v[1] = Vertex{X: x1, Y: y0, U: u1, V: v0, Color: rgba}
		v[2] = Vertex{X: x1, Y: y1, U: u1, V: v1, Color: rgba}
		v[3] = Vertex{X: x0, Y: y1, U: u0, V: v1, Color: rgba}
		base := uint16(drawn * 4)
		copy(inds[drawn*6:], []uint16{base, base + 1, base + 2, base + 2, base + 3, base})
		drawn++
	}
	// Give back the tail reserved for skipped items.
	ctx.Batch.DeallocateIndices((count - drawn) * 6)
	ctx.Batch.DeallocateVertices((count - drawn) * 4)
	if drawn == 0 {
		return
	}
	tris := Triangles[Vertex]{Verts: verts[:drawn*4], Indices: inds[:drawn*6]}
	cmd := ctx.Batch.AddCommand(ctx.Queue, a.texture, a.blend, tris, ctx.Transform, n.GlobalOrder)
	cmd.PremultipliedColors = a.opacityModifyRGB
}
