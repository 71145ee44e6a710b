package thicket

import "testing"

// --- Constructor defaults ---

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode("test")
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != "test" {
		t.Errorf("Name = %q, want %q", n.Name, "test")
	}
	if n.ScaleX != 1 || n.ScaleY != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", n.ScaleX, n.ScaleY)
	}
	if n.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", n.Alpha)
	}
	if n.Color != ColorWhite {
		t.Errorf("Color = %v, want white", n.Color)
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
	if !n.transformDirty {
		t.Error("transformDirty should be true")
	}
	if n.DisplayedOpacity() != 255 {
		t.Errorf("DisplayedOpacity = %d, want 255", n.DisplayedOpacity())
	}
}

func TestUniqueIDs(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	if a.ID == b.ID {
		t.Errorf("IDs should differ, both = %d", a.ID)
	}
}

// --- Tree manipulation ---

func TestAddChildBasic(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Errorf("children = %v, want [child]", parent.Children())
	}
}

func TestAddChildReparent(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")
	a.AddChild(child)
	b.AddChild(child)

	if a.NumChildren() != 0 {
		t.Errorf("old parent NumChildren = %d, want 0", a.NumChildren())
	}
	if child.Parent != b {
		t.Error("child.Parent should be the new parent")
	}
}

func TestAddChildCyclePanic(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	a.AddChild(b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on cycle")
		}
	}()
	b.AddChild(a)
}

func TestAddChildNilPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on nil child")
		}
	}()
	NewNode("n").AddChild(nil)
}

func TestAddChildAt(t *testing.T) {
	parent := NewNode("parent")
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	parent.AddChild(a)
	parent.AddChild(c)
	parent.AddChildAt(b, 1)

	want := []*Node{a, b, c}
	for i, w := range want {
		if parent.ChildAt(i) != w {
			t.Errorf("child[%d] = %q, want %q", i, parent.ChildAt(i).Name, w.Name)
		}
	}
}

func TestAddChildAtOutOfRangePanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on bad index")
		}
	}()
	NewNode("p").AddChildAt(NewNode("c"), 2)
}

func TestRemoveChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.RemoveChild(child)

	if child.Parent != nil {
		t.Error("child.Parent should be nil")
	}
	if parent.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", parent.NumChildren())
	}
}

func TestRemoveChildWrongParentPanic(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")
	a.AddChild(child)
	defer func() {
		if recover() == nil {
			t.Error("expected panic removing from wrong parent")
		}
	}()
	b.RemoveChild(child)
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := NewNode("n")
	n.RemoveFromParent()
	if n.Parent != nil {
		t.Error("Parent should stay nil")
	}
}

func TestRemoveChildren(t *testing.T) {
	parent := NewNode("parent")
	a, b := NewNode("a"), NewNode("b")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.RemoveChildren()

	if parent.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", parent.NumChildren())
	}
	if a.Parent != nil || b.Parent != nil {
		t.Error("children should be detached")
	}
	if a.IsDisposed() || b.IsDisposed() {
		t.Error("children should not be disposed")
	}
}

func TestNextSibling(t *testing.T) {
	parent := NewNode("parent")
	a, b := NewNode("a"), NewNode("b")
	parent.AddChild(a)
	parent.AddChild(b)

	if a.NextSibling() != b {
		t.Error("a.NextSibling() should be b")
	}
	if b.NextSibling() != nil {
		t.Error("last child's NextSibling() should be nil")
	}
	if parent.NextSibling() != nil {
		t.Error("root's NextSibling() should be nil")
	}
}

// --- Disposal ---

func TestDispose(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	parent.AddChild(child)
	child.AddChild(grandchild)
	child.Drawable = &AtlasNode{}

	child.Dispose()

	if !child.IsDisposed() || !grandchild.IsDisposed() {
		t.Error("child and grandchild should be disposed")
	}
	if parent.NumChildren() != 0 {
		t.Errorf("parent NumChildren = %d, want 0", parent.NumChildren())
	}
	if child.Drawable != nil {
		t.Error("Drawable should be released")
	}
	if child.ID != 0 {
		t.Errorf("ID = %d, want 0", child.ID)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	n := NewNode("n")
	n.Dispose()
	n.Dispose()
	if !n.IsDisposed() {
		t.Error("should stay disposed")
	}
}

// --- Opacity and color ---

func TestSetOpacity(t *testing.T) {
	n := NewNode("n")
	n.SetOpacity(128)
	if n.Opacity() != 128 {
		t.Errorf("Opacity = %d, want 128", n.Opacity())
	}
	if !n.transformDirty {
		t.Error("SetOpacity should mark dirty")
	}
}

func TestDisplayedColorCarriesInheritedAlpha(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.SetOpacity(128)
	child.Color = Color{1, 0.5, 0, 1}

	updateWorldTransform(parent, identityTransform, 1, false)

	c := child.DisplayedColor()
	if c.R != 1 || c.G != 0.5 || c.B != 0 {
		t.Errorf("DisplayedColor rgb = (%v,%v,%v), want (1,0.5,0)", c.R, c.G, c.B)
	}
	if child.DisplayedOpacity() != 128 {
		t.Errorf("DisplayedOpacity = %d, want 128", child.DisplayedOpacity())
	}
}

// --- Dirty propagation ---

func TestDirtyPropagationOnAddChild(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	grandchild := NewNode("grandchild")
	child.AddChild(grandchild)
	updateWorldTransform(child, identityTransform, 1, false)
	if grandchild.transformDirty {
		t.Fatal("grandchild should be clean after update")
	}

	parent.AddChild(child)
	if !child.transformDirty || !grandchild.transformDirty {
		t.Error("reparenting should dirty the whole subtree")
	}
}
