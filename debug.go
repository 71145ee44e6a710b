package thicket

import (
	"fmt"
	"os"
	"time"
)

// debugStats holds per-frame timing and draw-call metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	traverseTime  time.Duration
	executeTime   time.Duration
	queue         QueueStats
	vertices      int
	twoColorVerts int
}

// debugLog prints timing and draw-call stats to stderr.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[thicket] traverse: %v | execute: %v | total: %v\n",
		stats.traverseTime, stats.executeTime, stats.traverseTime+stats.executeTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[thicket] commands: %d | merged: %d | draw calls: %d | batch verts: %d/%d\n",
		stats.queue.Commands, stats.queue.Merged, stats.queue.DrawCalls,
		stats.vertices, stats.twoColorVerts)
}

// debugWarn prints a formatted warning to stderr.
func debugWarn(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[thicket] "+format+"\n", args...)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("thicket debug: %s on disposed node %q", op, n.Name))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugWarn("warning: tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Name)
	}
}

// debugCheckChildCount warns on stderr when a node has so many children
// that two-color skeletons under it stop batching with their siblings.
func debugCheckChildCount(n *Node, scanLimit int) {
	if len(n.children) > scanLimit {
		debugWarn("warning: node %q has %d children (sibling scan limit %d)",
			n.Name, len(n.children), scanLimit)
	}
}
