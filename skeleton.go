package thicket

import "math"

// Skeleton is the model a SkeletonRenderer draws. Slots returns slots in
// storage order (Slot.Index == position); DrawOrder returns the same slots
// in the order they are drawn, which may be re-sorted at runtime.
type Skeleton interface {
	Slots() []*Slot
	DrawOrder() []*Slot
	Bones() []*Bone
	// Color is the skeleton-wide tint multiplied into every slot.
	Color() Color
	// Update advances the skeleton by dt seconds and recomputes bone world
	// transforms.
	Update(dt float64)
}

// Bone is a node of the skeleton hierarchy. Local properties are edited by
// animation code; world properties are derived by UpdateWorldTransform.
// World space maps a local point (x, y) to (A*x + B*y + WorldX, C*x + D*y + WorldY).
type Bone struct {
	Name   string
	Parent *Bone

	X, Y           float64
	Rotation       float64 // radians, clockwise on screen
	ScaleX, ScaleY float64
	Length         float64
	// Active is false when the bone is disabled by a skin constraint; slots
	// on inactive bones are not drawn.
	Active bool

	A, B, C, D     float64
	WorldX, WorldY float64
}

// NewBone creates an active bone with unit scale.
func NewBone(name string, parent *Bone) *Bone {
	return &Bone{Name: name, Parent: parent, ScaleX: 1, ScaleY: 1, Active: true}
}

// UpdateWorldTransform recomputes the world matrix from local properties and
// the parent's world matrix. Parents must be updated first.
func (b *Bone) UpdateWorldTransform() {
	sin, cos := math.Sincos(b.Rotation)
	la, lb := cos*b.ScaleX, -sin*b.ScaleY
	lc, ld := sin*b.ScaleX, cos*b.ScaleY
	if b.Parent == nil {
		b.A, b.B, b.C, b.D = la, lb, lc, ld
		b.WorldX, b.WorldY = b.X, b.Y
		return
	}
	p := b.Parent
	b.A = p.A*la + p.B*lc
	b.B = p.A*lb + p.B*ld
	b.C = p.C*la + p.D*lc
	b.D = p.C*lb + p.D*ld
	b.WorldX = p.A*b.X + p.B*b.Y + p.WorldX
	b.WorldY = p.C*b.X + p.D*b.Y + p.WorldY
}

// LocalToWorld maps a point in bone space to skeleton space.
func (b *Bone) LocalToWorld(x, y float64) (float64, float64) {
	return b.A*x + b.B*y + b.WorldX, b.C*x + b.D*y + b.WorldY
}

// Tip returns the skeleton-space end point of the bone.
func (b *Bone) Tip() (float64, float64) {
	return b.Length*b.A + b.WorldX, b.Length*b.C + b.WorldY
}

// Slot holds one attachment on a bone together with its tint and blend mode.
type Slot struct {
	Index      int
	Name       string
	Bone       *Bone
	Attachment Attachment
	Color      Color
	// DarkColor is the two-color-tint dark color, or nil for black.
	DarkColor *Color
	BlendMode BlendMode
	// Deform, when its length matches a mesh attachment's vertex list,
	// replaces the attachment's local vertices.
	Deform []float32
}

// Rig is a bundled Skeleton implementation: a bone list ordered parents
// first, slots in storage order and an independent draw order.
type Rig struct {
	bones     []*Bone
	slots     []*Slot
	drawOrder []*Slot
	color     Color

	// Time is the accumulated update time in seconds.
	Time float64
	// OnUpdate, when set, runs before world transforms are recomputed so
	// callers can pose bones procedurally.
	OnUpdate func(r *Rig, dt float64)
}

// NewRig creates an empty rig with a white tint.
func NewRig() *Rig {
	return &Rig{color: ColorWhite}
}

// AddBone appends a bone. parent must already belong to the rig (or be nil).
func (r *Rig) AddBone(name string, parent *Bone) *Bone {
	b := NewBone(name, parent)
	r.bones = append(r.bones, b)
	return b
}

// AddSlot appends a slot on bone at the end of both storage and draw order.
func (r *Rig) AddSlot(name string, bone *Bone) *Slot {
	s := &Slot{Index: len(r.slots), Name: name, Bone: bone, Color: ColorWhite}
	r.slots = append(r.slots, s)
	r.drawOrder = append(r.drawOrder, s)
	return s
}

// SetDrawOrder replaces the draw order. order must be a permutation of the
// rig's slots.
func (r *Rig) SetDrawOrder(order []*Slot) {
	if len(order) != len(r.slots) {
		panic("thicket: draw order must contain every slot exactly once")
	}
	seen := make([]bool, len(r.slots))
	for _, s := range order {
		if s.Index < 0 || s.Index >= len(r.slots) || r.slots[s.Index] != s || seen[s.Index] {
			panic("thicket: draw order must contain every slot exactly once")
		}
		seen[s.Index] = true
	}
	r.drawOrder = append(r.drawOrder[:0], order...)
}

// SetColor sets the skeleton-wide tint.
func (r *Rig) SetColor(c Color) { r.color = c }

// FindBone returns the bone with the given name, or nil.
func (r *Rig) FindBone(name string) *Bone {
	return findBone(r, name)
}

// FindSlot returns the slot with the given name, or nil.
func (r *Rig) FindSlot(name string) *Slot {
	return findSlot(r, name)
}

// UpdateWorldTransform recomputes every bone's world matrix.
func (r *Rig) UpdateWorldTransform() {
	for _, b := range r.bones {
		b.UpdateWorldTransform()
	}
}

func (r *Rig) Slots() []*Slot     { return r.slots }
func (r *Rig) DrawOrder() []*Slot { return r.drawOrder }
func (r *Rig) Bones() []*Bone     { return r.bones }
func (r *Rig) Color() Color       { return r.color }

// Update advances Time, runs OnUpdate and recomputes world transforms.
func (r *Rig) Update(dt float64) {
	r.Time += dt
	if r.OnUpdate != nil {
		r.OnUpdate(r, dt)
	}
	r.UpdateWorldTransform()
}

func findBone(s Skeleton, name string) *Bone {
	for _, b := range s.Bones() {
		if b.Name == name {
			return b
		}
	}
	return nil
}

func findSlot(s Skeleton, name string) *Slot {
	for _, sl := range s.Slots() {
		if sl.Name == name {
			return sl
		}
	}
	return nil
}
