package thicket

import "testing"

func atlasNode(tex *Texture, quads ...AtlasQuad) *Node {
	a := NewAtlasNode(tex, 16, 16)
	a.SetQuads(quads)
	n := NewNode("atlas")
	n.Drawable = a
	return n
}

func drawAtlas(n *Node) *FrameContext {
	updateWorldTransform(n, identityTransform, 1, false)
	ctx := NewFrameContext()
	ctx.Transform = n.worldTransform
	n.Drawable.Draw(ctx, n)
	return ctx
}

func TestAtlasNodeItemGrid(t *testing.T) {
	a := NewAtlasNode(NewTextureSize(128, 64, 100, 40, true), 16, 16)
	if a.ItemsPerRow() != 6 || a.ItemsPerColumn() != 2 {
		t.Errorf("items = %dx%d, want 6x2", a.ItemsPerRow(), a.ItemsPerColumn())
	}
	if a.BlendFunc() != BlendFuncAlphaPremultiplied || !a.OpacityModifyRGB() {
		t.Error("premultiplied texture should select premultiplied blend and opacity-modify-RGB")
	}

	a.SetTexture(NewTextureSize(32, 32, 32, 32, false))
	if a.BlendFunc() != BlendFuncAlphaNonPremultiplied || a.OpacityModifyRGB() {
		t.Error("straight texture should select non-premultiplied blend")
	}
}

func TestAtlasNodeItemSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero item width")
		}
	}()
	NewAtlasNode(testTexture(16, 16), 0, 16)
}

func TestAtlasNodeQuadsToDrawClamps(t *testing.T) {
	a := NewAtlasNode(testTexture(64, 64), 16, 16)
	a.SetQuads(make([]AtlasQuad, 3))
	if a.QuadsToDraw() != 3 {
		t.Errorf("QuadsToDraw = %d, want 3", a.QuadsToDraw())
	}
	a.SetQuadsToDraw(10)
	if a.QuadsToDraw() != 3 {
		t.Errorf("QuadsToDraw = %d, want clamp to 3", a.QuadsToDraw())
	}
	a.SetQuadsToDraw(-1)
	if a.QuadsToDraw() != 0 {
		t.Errorf("QuadsToDraw = %d, want clamp to 0", a.QuadsToDraw())
	}
}

func TestAtlasNodeDrawRecordsOneCommand(t *testing.T) {
	tex := testTexture(64, 64)
	n := atlasNode(tex,
		AtlasQuad{Item: 0, Dst: Rect{0, 0, 16, 16}},
		AtlasQuad{Item: 5, Dst: Rect{16, 0, 16, 16}},
	)
	ctx := drawAtlas(n)
	if ctx.Batch.CommandsInUse() != 1 {
		t.Fatalf("commands = %d, want 1", ctx.Batch.CommandsInUse())
	}
	cmd := ctx.Batch.commands[0]
	if cmd.VertexCount() != 8 || cmd.IndexCount() != 12 {
		t.Errorf("command = %d vertices, %d indices; want 8, 12", cmd.VertexCount(), cmd.IndexCount())
	}
	// Item 5 is column 1, row 1 on a 4-wide grid.
	v := cmd.verts[4]
	if v.U != 0.25 || v.V != 0.25 || v.X != 16 || v.Y != 0 {
		t.Errorf("second quad TL = %+v, want uv (0.25,0.25) at (16,0)", v)
	}
	if got := cmd.indices[6:12]; got[0] != 4 || got[5] != 4 {
		t.Errorf("second quad indices = %v, want based at 4", got)
	}
}

func TestAtlasNodeSkipsOutOfRangeItems(t *testing.T) {
	n := atlasNode(testTexture(32, 32),
		AtlasQuad{Item: 99, Dst: Rect{0, 0, 16, 16}},
		AtlasQuad{Item: 3, Dst: Rect{0, 0, 16, 16}},
	)
	ctx := drawAtlas(n)
	if ctx.Batch.CommandsInUse() != 1 {
		t.Fatalf("commands = %d, want 1", ctx.Batch.CommandsInUse())
	}
	if got := ctx.Batch.commands[0].VertexCount(); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
	if got := ctx.Batch.VerticesInUse(); got != 4 {
		t.Errorf("vertices in use = %d, want skipped tail returned", got)
	}
}

func TestAtlasNodeAllItemsOutOfRangeDrawsNothing(t *testing.T) {
	n := atlasNode(testTexture(32, 32), AtlasQuad{Item: -1})
	ctx := drawAtlas(n)
	if ctx.Batch.CommandsInUse() != 0 || ctx.Queue.Len() != 0 {
		t.Error("no command should be recorded")
	}
	if ctx.Batch.VerticesInUse() != 0 {
		t.Errorf("vertices in use = %d, want 0", ctx.Batch.VerticesInUse())
	}
}

func TestAtlasNodeOpacityModifyRGB(t *testing.T) {
	n := atlasNode(testTexture(32, 32), AtlasQuad{Item: 0, Dst: Rect{0, 0, 16, 16}})
	n.SetOpacity(128)

	ctx := drawAtlas(n)
	cmd := ctx.Batch.commands[0]
	if c := cmd.verts[0].Color; c.A != 128 || c.R != 128 {
		t.Errorf("color = %v, want premultiplied (128,..,128)", c)
	}
	if !cmd.PremultipliedColors {
		t.Error("command should be flagged premultiplied")
	}

	n.Drawable.(*AtlasNode).SetOpacityModifyRGB(false)
	ctx = drawAtlas(n)
	if c := ctx.Batch.commands[0].verts[0].Color; c.R != 255 {
		t.Errorf("straight red = %d, want 255", c.R)
	}
}

func TestAtlasNodesShareDrawCall(t *testing.T) {
	s := NewScene()
	tex := testTexture(32, 32)
	s.Root().AddChild(atlasNode(tex, AtlasQuad{Item: 0, Dst: Rect{0, 0, 16, 16}}))
	s.Root().AddChild(atlasNode(tex, AtlasQuad{Item: 1, Dst: Rect{16, 0, 16, 16}}))

	d := newFakeDevice(64, 64)
	s.DrawTo(d)
	if len(d.calls) != 1 {
		t.Errorf("draw calls = %d, want 1", len(d.calls))
	}
	if got := len(d.calls[0].Indices); got != 12 {
		t.Errorf("indices = %d, want 12", got)
	}
}
