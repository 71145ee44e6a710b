package thicket

import (
	"math"
	"math/rand/v2"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// GridEffect drives a node's distortion grid over time. Start attaches the
// effect to a node, installing a grid of the effect's kind and size unless
// the node's current grid can be reused. Update advances the effect by dt
// seconds and rewrites the grid's vertices.
//
// When an effect finishes it deactivates the grid, unless the grid has a
// pending reuse countdown, in which case the grid stays active so the next
// effect can continue from the distorted mesh.
type GridEffect interface {
	Start(n *Node)
	Update(dt float32)
	IsDone() bool
	// Grid returns the grid the effect is driving, or nil before Start.
	Grid() Grid
}

// RunGridEffect starts e on n. It replaces any effect already running on n.
func (n *Node) RunGridEffect(e GridEffect) {
	e.Start(n)
	n.effect = e
}

// StopGridEffect detaches the running effect, leaving the grid as it is.
func (n *Node) StopGridEffect() {
	n.effect = nil
}

// GridEffect returns the effect currently running on n, or nil.
func (n *Node) GridEffect() GridEffect {
	return n.effect
}

// tickGridEffect advances the node's effect and drops it once done.
func tickGridEffect(n *Node, dt float32) {
	if n.effect == nil {
		return
	}
	n.effect.Update(dt)
	if n.effect.IsDone() {
		n.effect = nil
	}
}

// gridEffect is the timing and grid-installation logic shared by all
// effects. Progress runs linearly from 0 to 1 over Duration.
type gridEffect struct {
	// Duration is the effect length in seconds.
	Duration float32
	// Size is the grid size the effect runs on.
	Size GridSize
	// Options configure the grid the effect creates.
	Options GridOptions

	done   bool
	tween  *gween.Tween
	target *Node
	grid   Grid
}

func (e *gridEffect) IsDone() bool { return e.done }

func (e *gridEffect) Grid() Grid { return e.grid }

// attach installs the grid on n. An active grid of the same kind and size
// with a pending reuse countdown is kept and rebuilt; anything else is
// replaced by a fresh grid from newGrid.
func (e *gridEffect) attach(n *Node, tiled bool, newGrid func() Grid) {
	e.target = n
	e.done = false
	e.tween = gween.New(0, 1, e.Duration, ease.Linear)

	if g := n.Grid; g != nil && g.Base().ReuseCount() > 0 {
		if g.Active() && g.Base().GridSize() == e.Size && isTiled(g) == tiled {
			g.Rebuild()
			e.grid = g
			return
		}
		if globalDebug {
			debugWarn("grid reuse requested on %q but the grid does not match the effect", n.Name)
		}
	}
	if n.Grid != nil && n.Grid.Active() {
		n.Grid.SetActive(false)
	}
	e.grid = newGrid()
	e.grid.SetActive(true)
	n.Grid = e.grid
}

// advance steps the tween and returns the progress. On completion it marks
// the effect done and releases the grid.
func (e *gridEffect) advance(dt float32) (float64, bool) {
	if e.done || e.tween == nil {
		return 1, false
	}
	if e.target != nil && e.target.IsDisposed() {
		e.done = true
		return 1, false
	}
	p, finished := e.tween.Update(dt)
	if e.Duration <= 0 {
		p, finished = 1, true
	}
	if finished {
		e.done = true
	}
	return float64(p), true
}

// finish deactivates the grid unless a reuse is pending.
func (e *gridEffect) finish() {
	if e.grid != nil && e.grid.Base().ReuseCount() == 0 {
		e.grid.SetActive(false)
	}
}

func isTiled(g Grid) bool {
	_, ok := g.(*TiledGrid3D)
	return ok
}

// --- Waves3D ---

// Waves3D ripples a uniform grid along z.
type Waves3D struct {
	gridEffect
	Waves         int
	Amplitude     float64
	AmplitudeRate float64

	g *Grid3D
}

// NewWaves3D creates a wave effect with the given number of waves and
// amplitude in pixels.
func NewWaves3D(duration float32, size GridSize, waves int, amplitude float64) *Waves3D {
	return &Waves3D{
		gridEffect:    gridEffect{Duration: duration, Size: size},
		Waves:         waves,
		Amplitude:     amplitude,
		AmplitudeRate: 1,
	}
}

// Start installs a Grid3D on n.
func (e *Waves3D) Start(n *Node) {
	e.attach(n, false, func() Grid { return NewGrid3D(e.Size, e.Options) })
	e.g = e.grid.(*Grid3D)
}

// Update displaces every vertex by a sine of time and position.
func (e *Waves3D) Update(dt float32) {
	t, ok := e.advance(dt)
	if !ok {
		return
	}
	amp := e.Amplitude * e.AmplitudeRate
	for i := 0; i <= e.Size.W; i++ {
		for j := 0; j <= e.Size.H; j++ {
			pos := Vec2{float64(i), float64(j)}
			v := e.g.OriginalVertex(pos)
			v[2] += float32(math.Sin(math.Pi*t*float64(e.Waves)*2+float64(v[1]+v[0])*0.01) * amp)
			e.g.SetVertex(pos, v)
		}
	}
	if e.done {
		e.finish()
	}
}

// --- FlipX3D ---

// FlipX3D turns a 1x1 grid around its vertical axis.
type FlipX3D struct {
	gridEffect

	g *Grid3D
}

// NewFlipX3D creates a half turn lasting duration seconds.
func NewFlipX3D(duration float32) *FlipX3D {
	return &FlipX3D{gridEffect: gridEffect{Duration: duration, Size: GridSize{1, 1}}}
}

// Start installs a 1x1 Grid3D on n.
func (e *FlipX3D) Start(n *Node) {
	e.attach(n, false, func() Grid { return NewGrid3D(e.Size, e.Options) })
	e.g = e.grid.(*Grid3D)
}

// Update rotates the quad by pi*progress, pushing the leading edge toward
// the viewer.
func (e *FlipX3D) Update(dt float32) {
	t, ok := e.advance(dt)
	if !ok {
		return
	}
	angle := math.Pi * t
	mz := math.Sin(angle)
	mx := math.Cos(angle / 2)

	v0 := e.g.OriginalVertex(Vec2{1, 1})
	v1 := e.g.OriginalVertex(Vec2{0, 0})

	var a, b, c, d Vec2
	var x float64
	if v0[0] > v1[0] {
		a, b, c, d = Vec2{0, 0}, Vec2{0, 1}, Vec2{1, 0}, Vec2{1, 1}
		x = float64(v0[0])
	} else {
		c, d, a, b = Vec2{0, 0}, Vec2{0, 1}, Vec2{1, 0}, Vec2{1, 1}
		x = float64(v1[0])
	}
	diffX := float32(x - x*mx)
	diffZ := float32(math.Abs(math.Floor(x * mz / 4)))

	for _, p := range [2]Vec2{a, b} {
		v := e.g.OriginalVertex(p)
		v[0] = diffX
		v[2] += diffZ
		e.g.SetVertex(p, v)
	}
	for _, p := range [2]Vec2{c, d} {
		v := e.g.OriginalVertex(p)
		v[0] -= diffX
		v[2] -= diffZ
		e.g.SetVertex(p, v)
	}
	if e.done {
		e.finish()
	}
}

// --- ShakyTiles3D ---

// ShakyTiles3D jitters every tile corner by up to Range pixels each frame.
type ShakyTiles3D struct {
	gridEffect
	Range  int
	ShakeZ bool

	g   *TiledGrid3D
	rng *rand.Rand
}

// NewShakyTiles3D creates a shake effect seeded with seed.
func NewShakyTiles3D(duration float32, size GridSize, rangePx int, shakeZ bool, seed uint64) *ShakyTiles3D {
	return &ShakyTiles3D{
		gridEffect: gridEffect{Duration: duration, Size: size},
		Range:      rangePx,
		ShakeZ:     shakeZ,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Start installs a TiledGrid3D on n.
func (e *ShakyTiles3D) Start(n *Node) {
	e.attach(n, true, func() Grid { return NewTiledGrid3D(e.Size, e.Options) })
	e.g = e.grid.(*TiledGrid3D)
}

// Update offsets each tile from its original corners.
func (e *ShakyTiles3D) Update(dt float32) {
	if _, ok := e.advance(dt); !ok {
		return
	}
	for i := 0; i < e.Size.W; i++ {
		for j := 0; j < e.Size.H; j++ {
			pos := Vec2{float64(i), float64(j)}
			q := e.g.OriginalTile(pos)
			for k := range q {
				q[k][0] += e.jitter()
				q[k][1] += e.jitter()
				if e.ShakeZ {
					q[k][2] += e.jitter()
				}
			}
			e.g.SetTile(pos, q)
		}
	}
	if e.done {
		e.finish()
	}
}

func (e *ShakyTiles3D) jitter() float32 {
	if e.Range <= 0 {
		return 0
	}
	return float32(e.rng.IntN(2*e.Range+1) - e.Range)
}

// --- TurnOffTiles ---

// TurnOffTiles hides tiles one by one in a shuffled order until none remain.
type TurnOffTiles struct {
	gridEffect

	g     *TiledGrid3D
	rng   *rand.Rand
	order []int
}

// NewTurnOffTiles creates the effect with a seeded tile order.
func NewTurnOffTiles(duration float32, size GridSize, seed uint64) *TurnOffTiles {
	return &TurnOffTiles{
		gridEffect: gridEffect{Duration: duration, Size: size},
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Start installs a TiledGrid3D on n and shuffles the tile order.
func (e *TurnOffTiles) Start(n *Node) {
	e.attach(n, true, func() Grid { return NewTiledGrid3D(e.Size, e.Options) })
	e.g = e.grid.(*TiledGrid3D)
	count := e.Size.W * e.Size.H
	e.order = make([]int, count)
	for i := range e.order {
		e.order[i] = i
	}
	e.rng.Shuffle(count, func(i, j int) { e.order[i], e.order[j] = e.order[j], e.order[i] })
}

// Update turns off the first progress*count tiles of the shuffled order and
// restores the rest.
func (e *TurnOffTiles) Update(dt float32) {
	t, ok := e.advance(dt)
	if !ok {
		return
	}
	l := int(t * float64(len(e.order)))
	for i, tile := range e.order {
		pos := Vec2{float64(tile / e.Size.H), float64(tile % e.Size.H)}
		if i < l {
			e.g.SetTile(pos, Quad3{})
		} else {
			e.g.SetTile(pos, e.g.OriginalTile(pos))
		}
	}
	if e.done {
		e.finish()
	}
}
