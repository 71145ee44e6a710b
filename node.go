package thicket

// --- ID counter ---

// nodeIDCounter is a plain counter since nodes are built on one goroutine.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Drawable renders a node's own content into the frame. ctx.Transform holds
// the node's node-to-target transform while Draw runs.
type Drawable interface {
	Draw(ctx *FrameContext, n *Node)
}

// updater is implemented by drawables that advance over time.
type updater interface {
	Update(dt float64)
}

// --- Node ---

// Node is the scene graph element. It carries the transform hierarchy,
// opacity and tint propagation, and an optional Drawable and distortion
// Grid. Renderers consume only its world transform, displayed color and
// opacity, visibility, global order and sibling list.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64
	PivotX       float64
	PivotY       float64

	// Computed during Scene.Draw
	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool

	// Alpha is the node's own opacity in [0, 1]; displayed opacity is the
	// product along the parent chain.
	Alpha float64
	// Color tints the node's content; only RGB is used.
	Color   Color
	Visible bool
	// GlobalOrder sorts this node's commands in the render queue. Ties keep
	// traversal order.
	GlobalOrder int

	// Drawable renders the node's own content, or nil for a container.
	Drawable Drawable
	// Grid, when active, captures this node's subtree and redraws it
	// through a distortion mesh.
	Grid Grid
	// OnUpdate is called once per Scene.Update with the frame delta.
	OnUpdate func(dt float64)

	UserData any

	effect   GridEffect
	disposed bool
}

// NewNode creates a visible, untinted container node.
func NewNode(name string) *Node {
	return &Node{
		ID:             nextNodeID(),
		Name:           name,
		ScaleX:         1,
		ScaleY:         1,
		Alpha:          1,
		Color:          ColorWhite,
		Visible:        true,
		transformDirty: true,
		worldAlpha:     1,
		worldTransform: identityTransform,
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("thicket: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("thicket: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("thicket: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("thicket: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	if index < 0 || index > len(n.children) {
		panic("thicket: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	markSubtreeDirty(child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("thicket: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.Parent = nil
		markSubtreeDirty(child)
	}
	clear(n.children)
	n.children = n.children[:0]
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Find returns the first node named name in this subtree, depth first,
// including n itself.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// NextSibling returns the child after n in its parent's list, or nil.
// Linear in the number of siblings.
func (n *Node) NextSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	siblings := n.Parent.children
	for i, c := range siblings {
		if c == n {
			if i+1 < len(siblings) {
				return siblings[i+1]
			}
			return nil
		}
	}
	return nil
}

// --- Opacity and color ---

// SetOpacity sets the node's opacity on the 0-255 scale.
func (n *Node) SetOpacity(o uint8) {
	n.SetAlpha(float64(o) / 255)
}

// Opacity returns the node's own opacity on the 0-255 scale.
func (n *Node) Opacity() uint8 {
	return unitToByte(n.Alpha)
}

// DisplayedOpacity returns the opacity inherited through the parent chain
// as of the last Scene.Draw, on the 0-255 scale.
func (n *Node) DisplayedOpacity() uint8 {
	return unitToByte(n.worldAlpha)
}

// DisplayedColor returns the node tint with A set to the displayed alpha.
func (n *Node) DisplayedColor() Color {
	return Color{n.Color.R, n.Color.G, n.Color.B, n.worldAlpha}
}

// WorldTransform returns the node-to-scene transform as of the last
// Scene.Draw.
func (n *Node) WorldTransform() [6]float64 {
	return n.worldTransform
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Drawable = nil
	n.Grid = nil
	n.effect = nil
	n.OnUpdate = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
