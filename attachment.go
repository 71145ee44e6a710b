package thicket

import "math"

// Attachment is the visual payload of a slot. The renderer handles
// *RegionAttachment, *MeshAttachment and *ClippingAttachment; any other
// implementation is treated as having nothing to draw.
type Attachment interface {
	AttachmentName() string
}

// quadIndices triangulates a region's four corners.
var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// RegionAttachment is a textured quad placed relative to its bone.
// Corners are ordered bottom-left, top-left, top-right, bottom-right, where
// "top" is towards negative Y.
type RegionAttachment struct {
	Name    string
	Texture *Texture
	Color   Color

	X, Y           float64
	Rotation       float64
	ScaleX, ScaleY float64
	Width, Height  float64

	// UVs holds normalized texture coordinates per corner.
	UVs [8]float32
	// Offsets holds bone-space corner positions; see UpdateOffsets.
	Offsets [8]float32
}

// NewRegionAttachment creates a region showing the src pixel rectangle of
// tex at its natural size, centered on the bone.
func NewRegionAttachment(name string, tex *Texture, src Rect) *RegionAttachment {
	a := &RegionAttachment{
		Name:    name,
		Texture: tex,
		Color:   ColorWhite,
		ScaleX:  1,
		ScaleY:  1,
		Width:   src.Width,
		Height:  src.Height,
	}
	tw, th := float64(tex.Width()), float64(tex.Height())
	a.SetUVs(float32(src.X/tw), float32(src.Y/th), float32((src.X+src.Width)/tw), float32((src.Y+src.Height)/th))
	a.UpdateOffsets()
	return a
}

func (a *RegionAttachment) AttachmentName() string { return a.Name }

// SetUVs sets the corner UVs from a normalized texture rectangle.
func (a *RegionAttachment) SetUVs(u0, v0, u1, v1 float32) {
	a.UVs = [8]float32{u0, v1, u0, v0, u1, v0, u1, v1}
}

// UpdateOffsets recomputes bone-space corners from the placement fields.
// Call it after changing X, Y, Rotation, ScaleX, ScaleY, Width or Height.
func (a *RegionAttachment) UpdateOffsets() {
	hw := a.Width / 2 * a.ScaleX
	hh := a.Height / 2 * a.ScaleY
	sin, cos := math.Sincos(a.Rotation)
	corners := [4][2]float64{{-hw, hh}, {-hw, -hh}, {hw, -hh}, {hw, hh}}
	for i, c := range corners {
		a.Offsets[i*2] = float32(c[0]*cos - c[1]*sin + a.X)
		a.Offsets[i*2+1] = float32(c[0]*sin + c[1]*cos + a.Y)
	}
}

// ComputeWorldVertices writes the four skeleton-space corners to dst[0:8].
func (a *RegionAttachment) ComputeWorldVertices(bone *Bone, dst []float32) {
	for i := 0; i < 8; i += 2 {
		x, y := bone.LocalToWorld(float64(a.Offsets[i]), float64(a.Offsets[i+1]))
		dst[i] = float32(x)
		dst[i+1] = float32(y)
	}
}

// MeshAttachment is a textured triangle mesh whose vertices follow one bone.
type MeshAttachment struct {
	Name    string
	Texture *Texture
	Color   Color

	// Vertices holds bone-space xy pairs.
	Vertices []float32
	// UVs holds one normalized xy pair per vertex.
	UVs       []float32
	Triangles []uint16
	// HullLength is the number of floats forming the outer hull, used by
	// the debug wireframe.
	HullLength int
}

func (m *MeshAttachment) AttachmentName() string { return m.Name }

// WorldVerticesLength returns the number of floats ComputeWorldVertices writes.
func (m *MeshAttachment) WorldVerticesLength() int { return len(m.Vertices) }

// ComputeWorldVertices writes skeleton-space vertices to dst, using the
// slot's deform when it matches the vertex count.
func (m *MeshAttachment) ComputeWorldVertices(slot *Slot, dst []float32) {
	src := m.Vertices
	if len(slot.Deform) == len(src) {
		src = slot.Deform
	}
	for i := 0; i+1 < len(src); i += 2 {
		x, y := slot.Bone.LocalToWorld(float64(src[i]), float64(src[i+1]))
		dst[i] = float32(x)
		dst[i+1] = float32(y)
	}
}

// ClippingAttachment clips every slot drawn after it, up to and including
// EndSlot, to its polygon. A nil EndSlot clips to the end of the skeleton.
type ClippingAttachment struct {
	Name string
	// Vertices holds the bone-space polygon as xy pairs.
	Vertices []float32
	EndSlot  *Slot
	// Color is used by the debug overlay.
	Color Color
}

func (c *ClippingAttachment) AttachmentName() string { return c.Name }

// ComputeWorldVertices appends the skeleton-space polygon to dst.
func (c *ClippingAttachment) ComputeWorldVertices(slot *Slot, dst []float32) []float32 {
	for i := 0; i+1 < len(c.Vertices); i += 2 {
		x, y := slot.Bone.LocalToWorld(float64(c.Vertices[i]), float64(c.Vertices[i+1]))
		dst = append(dst, float32(x), float32(y))
	}
	return dst
}

// PointAttachment marks a position and rotation on a bone, e.g. a muzzle.
// It has no visual output.
type PointAttachment struct {
	Name     string
	X, Y     float64
	Rotation float64
}

func (p *PointAttachment) AttachmentName() string { return p.Name }

// WorldPosition returns the skeleton-space point.
func (p *PointAttachment) WorldPosition(bone *Bone) (float64, float64) {
	return bone.LocalToWorld(p.X, p.Y)
}
