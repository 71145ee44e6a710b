package thicket

// DefaultSiblingScanLimit is the parent child count above which a skeleton
// renderer stops looking at its next sibling and always force-flushes.
const DefaultSiblingScanLimit = 100

// FlushKey is the part of a node the force-flush heuristic compares between
// a two-color skeleton renderer and its next sibling.
type FlushKey struct {
	Skeleton     bool // drawn by a SkeletonRenderer
	TwoColorTint bool
	Visible      bool
	GlobalOrder  int
}

// NeedsForceFlush reports whether the last two-color command of the node
// described by self must close its batch. next is the next sibling's key,
// or nil when there is no next sibling. The batch may stay open only for a
// visible two-color skeleton sibling at the same global order.
func NeedsForceFlush(self FlushKey, next *FlushKey) bool {
	if next == nil {
		return true
	}
	return !next.Skeleton ||
		!next.TwoColorTint ||
		!next.Visible ||
		next.GlobalOrder != self.GlobalOrder
}

// flushKeyOf builds the FlushKey of n.
func flushKeyOf(n *Node) FlushKey {
	k := FlushKey{Visible: n.Visible, GlobalOrder: n.GlobalOrder}
	if r, ok := n.Drawable.(*SkeletonRenderer); ok {
		k.Skeleton = true
		k.TwoColorTint = r.TwoColorTint()
	}
	return k
}

// shouldForceFlush applies NeedsForceFlush to n's position in the tree.
// Nodes with children, orphans and children of parents wider than
// scanLimit always flush.
func shouldForceFlush(n *Node, scanLimit int) bool {
	if scanLimit <= 0 {
		scanLimit = DefaultSiblingScanLimit
	}
	p := n.Parent
	if p == nil || p.NumChildren() > scanLimit || n.NumChildren() != 0 {
		return true
	}
	next := n.NextSibling()
	if next == nil {
		return NeedsForceFlush(flushKeyOf(n), nil)
	}
	nk := flushKeyOf(next)
	return NeedsForceFlush(flushKeyOf(n), &nk)
}
