package thicket

// minBatchCapacity is the initial vertex and index capacity of a VertexBatch.
const minBatchCapacity = 512

// Triangles is one draw's worth of pooled vertices and indices. Indices are
// relative to Verts.
type Triangles[V vertexLayout] struct {
	Verts   []V
	Indices []uint16
}

// VertexBatch is a per-frame scratch pool for one vertex layout. Ranges
// handed out by AllocateVertices and AllocateIndices stay valid until Reset,
// even when the pool grows: growth moves the cursor to a fresh backing array
// and leaves earlier ranges where they are. Reset sizes the next frame's
// array to the frame's total demand so steady-state frames never grow.
//
// A VertexBatch is owned by the FrameContext and shared by every renderer
// drawing in that frame. Not safe for concurrent use (no locks; thicket is
// single-threaded).
type VertexBatch[V vertexLayout] struct {
	verts     []V
	vertsUsed int
	vertsPeak int // vertices requested this frame across all backing arrays

	inds     []uint16
	indsUsed int
	indsPeak int

	commands     []*TrianglesCommand
	commandsUsed int

	grows int
}

// NewVertexBatch creates an empty pool.
func NewVertexBatch[V vertexLayout]() *VertexBatch[V] {
	return &VertexBatch[V]{}
}

// AllocateVertices returns n zeroed contiguous vertices.
func (b *VertexBatch[V]) AllocateVertices(n int) []V {
	if n <= 0 {
		return nil
	}
	if b.vertsUsed+n > len(b.verts) {
		b.verts = make([]V, max(2*len(b.verts), n, minBatchCapacity))
		b.vertsUsed = 0
		b.grows++
	}
	out := b.verts[b.vertsUsed : b.vertsUsed+n : b.vertsUsed+n]
	clear(out)
	b.vertsUsed += n
	b.vertsPeak += n
	return out
}

// AllocateIndices returns n contiguous indices.
func (b *VertexBatch[V]) AllocateIndices(n int) []uint16 {
	if n <= 0 {
		return nil
	}
	if b.indsUsed+n > len(b.inds) {
		b.inds = make([]uint16, max(2*len(b.inds), n, minBatchCapacity))
		b.indsUsed = 0
		b.grows++
	}
	out := b.inds[b.indsUsed : b.indsUsed+n : b.indsUsed+n]
	b.indsUsed += n
	b.indsPeak += n
	return out
}

// DeallocateVertices returns the last n allocated vertices to the pool.
// Only valid directly after the allocation being abandoned.
func (b *VertexBatch[V]) DeallocateVertices(n int) {
	n = min(n, b.vertsUsed)
	b.vertsUsed -= n
	b.vertsPeak -= n
}

// DeallocateIndices returns the last n allocated indices to the pool.
func (b *VertexBatch[V]) DeallocateIndices(n int) {
	n = min(n, b.indsUsed)
	b.indsUsed -= n
	b.indsPeak -= n
}

// AddCommand records a draw of tris into q and returns the command so the
// caller can force a flush on it later. tris should come from this pool.
func (b *VertexBatch[V]) AddCommand(q *RenderQueue, tex *Texture, blend BlendFunc, tris Triangles[V], transform [6]float64, globalOrder int) *TrianglesCommand {
	cmd := b.nextCommand()
	*cmd = TrianglesCommand{
		Texture:   tex,
		Blend:     blend,
		Transform: transform,
		indices:   tris.Indices,
	}
	switch v := any(tris.Verts).(type) {
	case []Vertex:
		cmd.verts = v
	case []TwoColorVertex:
		if v == nil {
			v = []TwoColorVertex{}
		}
		cmd.twoColorVerts = v
	}
	q.AddCommand(cmd, globalOrder)
	return cmd
}

func (b *VertexBatch[V]) nextCommand() *TrianglesCommand {
	if b.commandsUsed == len(b.commands) {
		b.commands = append(b.commands, &TrianglesCommand{})
	}
	cmd := b.commands[b.commandsUsed]
	b.commandsUsed++
	return cmd
}

// Reset releases every range and command handed out this frame. Call it
// only after the queue holding this frame's commands has executed.
func (b *VertexBatch[V]) Reset() {
	if b.grows > 0 {
		if b.vertsPeak > len(b.verts) {
			b.verts = make([]V, b.vertsPeak)
		}
		if b.indsPeak > len(b.inds) {
			b.inds = make([]uint16, b.indsPeak)
		}
	}
	b.vertsUsed, b.vertsPeak = 0, 0
	b.indsUsed, b.indsPeak = 0, 0
	b.grows = 0
	for i := 0; i < b.commandsUsed; i++ {
		*b.commands[i] = TrianglesCommand{}
	}
	b.commandsUsed = 0
}

// VertexCapacity returns the size of the current backing vertex array.
func (b *VertexBatch[V]) VertexCapacity() int { return len(b.verts) }

// VerticesInUse returns the number of vertices allocated this frame.
func (b *VertexBatch[V]) VerticesInUse() int { return b.vertsPeak }

// CommandsInUse returns the number of commands recorded this frame.
func (b *VertexBatch[V]) CommandsInUse() int { return b.commandsUsed }
