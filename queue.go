package thicket

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultMaxBatchVertices caps the vertices merged into one draw call.
const DefaultMaxBatchVertices = 65536

// CommandType identifies the kind of render command.
type CommandType uint8

const (
	CommandTriangles CommandType = iota // pooled triangles, merged with neighbors
	CommandDraw                         // a prepared DrawCall submitted as-is
	CommandCallback                     // a function run against the Device
	CommandGroup                        // executes a nested command queue in place
)

// RenderCommand is a single entry in a RenderQueue. Commands are recorded
// during traversal and executed later; they reference scratch memory that is
// only valid until the queue is reset.
type RenderCommand struct {
	Type        CommandType
	GlobalOrder int
	treeOrder   int // assigned on record for stable sort

	tris     *TrianglesCommand
	call     *DrawCall
	callback func(Device)
	group    int
}

// TrianglesCommand is one logical draw recorded from a VertexBatch: a range
// of pooled vertices and indices sampling one texture with one blend func.
type TrianglesCommand struct {
	Texture   *Texture
	Blend     BlendFunc
	Transform [6]float64
	// PremultipliedColors marks vertex colors as premultiplied by alpha.
	PremultipliedColors bool

	verts         []Vertex
	twoColorVerts []TwoColorVertex
	indices       []uint16
	forceFlush    bool
}

// SetForceFlush makes the queue submit the batch containing this command
// immediately after it, instead of leaving it open for the next command.
func (c *TrianglesCommand) SetForceFlush(v bool) { c.forceFlush = v }

// ForceFlush reports whether this command closes its batch.
func (c *TrianglesCommand) ForceFlush() bool { return c.forceFlush }

// TwoColor reports whether the command uses the two-color vertex layout.
func (c *TrianglesCommand) TwoColor() bool { return c.twoColorVerts != nil }

// VertexCount returns the number of vertices referenced by the command.
func (c *TrianglesCommand) VertexCount() int {
	if c.twoColorVerts != nil {
		return len(c.twoColorVerts)
	}
	return len(c.verts)
}

// IndexCount returns the number of indices referenced by the command.
func (c *TrianglesCommand) IndexCount() int { return len(c.indices) }

// materialKey groups triangle commands that can share one draw call.
type materialKey struct {
	texture       *Texture
	blend         BlendFunc
	twoColor      bool
	premultiplied bool
}

func (c *TrianglesCommand) key() materialKey {
	return materialKey{
		texture:       c.Texture,
		blend:         c.Blend,
		twoColor:      c.TwoColor(),
		premultiplied: c.PremultipliedColors,
	}
}

// appendVertices converts the command's vertices to ebiten vertices in
// target space and appends them to dst.
func (c *TrianglesCommand) appendVertices(dst []ebiten.Vertex) []ebiten.Vertex {
	m := affine32(c.Transform)
	var tw, th float32 = 1, 1
	if c.Texture != nil {
		tw, th = float32(c.Texture.Width()), float32(c.Texture.Height())
	}
	for _, v := range c.verts {
		dst = append(dst, ebiten.Vertex{
			DstX:   m[0]*v.X + m[2]*v.Y + m[4],
			DstY:   m[1]*v.X + m[3]*v.Y + m[5],
			SrcX:   v.U * tw,
			SrcY:   v.V * th,
			ColorR: float32(v.Color.R) / 255,
			ColorG: float32(v.Color.G) / 255,
			ColorB: float32(v.Color.B) / 255,
			ColorA: float32(v.Color.A) / 255,
		})
	}
	for _, v := range c.twoColorVerts {
		dst = append(dst, ebiten.Vertex{
			DstX:    m[0]*v.X + m[2]*v.Y + m[4],
			DstY:    m[1]*v.X + m[3]*v.Y + m[5],
			SrcX:    v.U * tw,
			SrcY:    v.V * th,
			ColorR:  float32(v.Light.R) / 255,
			ColorG:  float32(v.Light.G) / 255,
			ColorB:  float32(v.Light.B) / 255,
			ColorA:  float32(v.Light.A) / 255,
			Custom0: float32(v.Dark.R) / 255,
			Custom1: float32(v.Dark.G) / 255,
			Custom2: float32(v.Dark.B) / 255,
			Custom3: float32(v.Dark.A) / 255,
		})
	}
	return dst
}

// affine32 converts a [6]float64 affine matrix to [6]float32.
func affine32(m [6]float64) [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}

// QueueStats summarizes one Execute.
type QueueStats struct {
	Commands  int // commands visited, including nested groups
	DrawCalls int // Device.DrawTriangles calls
	Merged    int // triangle commands folded into batches
	Vertices  int // vertices submitted through merged batches
}

// RenderQueue records commands now and executes them later. Triangle
// commands with the same material run consecutively into one draw call until
// the material changes, a command forces a flush, a non-triangle command
// intervenes, or MaxBatchVertices would be exceeded.
//
// Commands are recorded into the current group. Group 0 is the main queue;
// PushGroup redirects recording into a nested queue that runs where its
// CommandGroup entry sits in the parent.
type RenderQueue struct {
	// MaxBatchVertices caps a merged draw call. Zero means DefaultMaxBatchVertices.
	MaxBatchVertices int

	queues     [][]RenderCommand
	used       int
	groupStack []int
	treeOrder  int
	sortBuf    []RenderCommand

	open       bool
	key        materialKey
	batchVerts []ebiten.Vertex
	batchInds  []uint32
	call       DrawCall
	stats      QueueStats
}

// NewRenderQueue creates an empty queue.
func NewRenderQueue() *RenderQueue {
	q := &RenderQueue{}
	q.Reset()
	return q
}

// Reset discards every recorded command. Backing arrays are kept.
func (q *RenderQueue) Reset() {
	for i := range q.queues {
		q.queues[i] = q.queues[i][:0]
	}
	if len(q.queues) == 0 {
		q.queues = append(q.queues, nil)
	}
	q.used = 1
	q.groupStack = q.groupStack[:0]
	q.treeOrder = 0
}

// Len returns the number of commands recorded across all groups.
func (q *RenderQueue) Len() int {
	n := 0
	for i := 0; i < q.used; i++ {
		n += len(q.queues[i])
	}
	return n
}

func (q *RenderQueue) current() int {
	if len(q.groupStack) == 0 {
		return 0
	}
	return q.groupStack[len(q.groupStack)-1]
}

func (q *RenderQueue) record(cmd RenderCommand) {
	cmd.treeOrder = q.treeOrder
	q.treeOrder++
	id := q.current()
	q.queues[id] = append(q.queues[id], cmd)
}

// AddCommand records a triangles command at the command's global order.
func (q *RenderQueue) AddCommand(cmd *TrianglesCommand, globalOrder int) {
	q.record(RenderCommand{Type: CommandTriangles, GlobalOrder: globalOrder, tris: cmd})
}

// AddDrawCall records a prepared draw call. The call and its slices must stay
// untouched until the queue executes.
func (q *RenderQueue) AddDrawCall(call *DrawCall, globalOrder int) {
	q.record(RenderCommand{Type: CommandDraw, GlobalOrder: globalOrder, call: call})
}

// AddCallback records fn to run against the Device at execution time.
func (q *RenderQueue) AddCallback(globalOrder int, fn func(Device)) {
	q.record(RenderCommand{Type: CommandCallback, GlobalOrder: globalOrder, callback: fn})
}

// CreateGroup allocates a nested command queue and returns its id.
func (q *RenderQueue) CreateGroup() int {
	if q.used == len(q.queues) {
		q.queues = append(q.queues, nil)
	}
	id := q.used
	q.queues[id] = q.queues[id][:0]
	q.used++
	return id
}

// AddGroup records a command that executes group id at this position.
func (q *RenderQueue) AddGroup(id, globalOrder int) {
	q.record(RenderCommand{Type: CommandGroup, GlobalOrder: globalOrder, group: id})
}

// PushGroup directs subsequent recording into group id.
func (q *RenderQueue) PushGroup(id int) {
	if id <= 0 || id >= q.used {
		panic("thicket: PushGroup with unknown group id")
	}
	q.groupStack = append(q.groupStack, id)
}

// PopGroup restores recording to the enclosing group.
func (q *RenderQueue) PopGroup() {
	if len(q.groupStack) == 0 {
		panic("thicket: PopGroup without matching PushGroup")
	}
	q.groupStack = q.groupStack[:len(q.groupStack)-1]
}

// Execute runs every recorded command against d and returns draw stats.
// Slices handed to d are reused afterwards; Device implementations must not
// retain them.
func (q *RenderQueue) Execute(d Device) QueueStats {
	q.stats = QueueStats{}
	q.open = false
	q.executeGroup(d, 0)
	q.flush(d)
	return q.stats
}

func (q *RenderQueue) executeGroup(d Device, id int) {
	cmds := q.queues[id]
	q.sortCommands(cmds)
	for i := range cmds {
		cmd := &cmds[i]
		q.stats.Commands++
		switch cmd.Type {
		case CommandTriangles:
			q.batch(d, cmd.tris)
		case CommandDraw:
			q.flush(d)
			d.DrawTriangles(cmd.call)
			q.stats.DrawCalls++
		case CommandCallback:
			q.flush(d)
			cmd.callback(d)
		case CommandGroup:
			q.flush(d)
			q.executeGroup(d, cmd.group)
		}
	}
}

// batch appends c to the open batch, flushing first when c cannot join it.
func (q *RenderQueue) batch(d Device, c *TrianglesCommand) {
	if c == nil || len(c.indices) == 0 {
		return
	}
	key := c.key()
	if q.open && (key != q.key || len(q.batchVerts)+c.VertexCount() > q.maxVertices()) {
		q.flush(d)
	}
	q.open = true
	q.key = key

	base := uint32(len(q.batchVerts))
	q.batchVerts = c.appendVertices(q.batchVerts)
	for _, idx := range c.indices {
		q.batchInds = append(q.batchInds, base+uint32(idx))
	}
	q.stats.Merged++

	if c.forceFlush {
		q.flush(d)
	}
}

// flush submits the open batch as a single draw call.
func (q *RenderQueue) flush(d Device) {
	if !q.open {
		return
	}
	q.open = false
	if len(q.batchInds) == 0 {
		q.batchVerts = q.batchVerts[:0]
		return
	}
	q.call = DrawCall{
		Texture:             q.key.texture,
		Blend:               q.key.blend,
		TwoColor:            q.key.twoColor,
		PremultipliedColors: q.key.premultiplied,
		Vertices:            q.batchVerts,
		Indices:             q.batchInds,
	}
	d.DrawTriangles(&q.call)
	q.stats.DrawCalls++
	q.stats.Vertices += len(q.batchVerts)
	q.batchVerts = q.batchVerts[:0]
	q.batchInds = q.batchInds[:0]
}

func (q *RenderQueue) maxVertices() int {
	if q.MaxBatchVertices > 0 {
		return q.MaxBatchVertices
	}
	return DefaultMaxBatchVertices
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same position as b.
// Using <= for treeOrder ensures stability.
func commandLessOrEqual(a, b *RenderCommand) bool {
	if a.GlobalOrder != b.GlobalOrder {
		return a.GlobalOrder < b.GlobalOrder
	}
	return a.treeOrder <= b.treeOrder
}

// sortCommands sorts cmds in place by GlobalOrder, keeping record order for
// ties. Bottom-up merge sort: zero allocations once sortBuf reaches its
// high-water mark.
func (q *RenderQueue) sortCommands(cmds []RenderCommand) {
	n := len(cmds)
	if n <= 1 {
		return
	}
	sorted := true
	for i := 1; i < n; i++ {
		if !commandLessOrEqual(&cmds[i-1], &cmds[i]) {
			sorted = false
			break
		}
	}
	if sorted {
		return
	}
	if cap(q.sortBuf) < n {
		q.sortBuf = make([]RenderCommand, n)
	}
	buf := q.sortBuf[:n]

	a, b := cmds, buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			mid := min(i+width, n)
			hi := min(i+2*width, n)
			mergeRun(a, b, i, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}
	if swapped {
		copy(cmds, buf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
