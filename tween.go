package thicket

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields together. Create one with a
// constructor below and either call Update(dt) yourself or hand it to
// Scene.Animate. A group bound to a node stops as soon as the node is
// disposed.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	target *Node
	Done   bool
}

func newTweenGroup(target *Node, duration float32, fn ease.TweenFunc, fields []*float64, to []float64) *TweenGroup {
	g := &TweenGroup{count: len(fields), target: target}
	for i, f := range fields {
		g.tweens[i] = gween.New(float32(*f), float32(to[i]), duration, fn)
		g.fields[i] = f
	}
	return g
}

// Update advances every tween by dt seconds and writes the values back.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// --- Node tweens ---

// TweenPosition animates node.X and node.Y.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, []*float64{&node.X, &node.Y}, []float64{toX, toY})
}

// TweenScale animates node.ScaleX and node.ScaleY.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, []*float64{&node.ScaleX, &node.ScaleY}, []float64{toSX, toSY})
}

// TweenRotation animates node.Rotation.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, []*float64{&node.Rotation}, []float64{to})
}

// TweenAlpha animates node.Alpha. Children fade with it.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, duration, fn, []*float64{&node.Alpha}, []float64{to})
}

// TweenColor animates the node tint.
func TweenColor(node *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	c := &node.Color
	return newTweenGroup(node, duration, fn,
		[]*float64{&c.R, &c.G, &c.B, &c.A}, []float64{to.R, to.G, to.B, to.A})
}

// --- Skeleton tweens ---

// TweenBoneRotation animates a bone's local rotation. owner is the node
// drawing the skeleton; the tween stops when it is disposed. World
// transforms pick the change up on the skeleton's next update.
func TweenBoneRotation(owner *Node, b *Bone, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(owner, duration, fn, []*float64{&b.Rotation}, []float64{to})
}

// TweenSlotColor animates a slot's light color.
func TweenSlotColor(owner *Node, s *Slot, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	c := &s.Color
	return newTweenGroup(owner, duration, fn,
		[]*float64{&c.R, &c.G, &c.B, &c.A}, []float64{to.R, to.G, to.B, to.A})
}

// --- Scene-driven tweens ---

// Animate registers g to be advanced at the start of every UpdateDelta and
// dropped once done.
func (s *Scene) Animate(g *TweenGroup) {
	s.tweens = append(s.tweens, g)
}

// Tweens returns the number of registered tweens still running.
func (s *Scene) Tweens() int {
	return len(s.tweens)
}

func (s *Scene) updateTweens(dt float32) {
	live := s.tweens[:0]
	for _, g := range s.tweens {
		g.Update(dt)
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(s.tweens[len(live):])
	s.tweens = live
}
