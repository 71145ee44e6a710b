package thicket

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// AtlasRegion is a named sub-rectangle of an atlas page.
type AtlasRegion struct {
	Page      int  // index into Atlas.Pages
	X, Y      int  // top-left corner within the page
	Width     int  // trimmed width, unrotated
	Height    int  // trimmed height, unrotated
	OriginalW int  // untrimmed width as authored
	OriginalH int  // untrimmed height as authored
	OffsetX   int  // trim offset from the untrimmed top-left
	OffsetY   int  // trim offset from the untrimmed top-left
	Rotated   bool // stored 90 degrees clockwise in the page
}

// Rect returns the rectangle the region occupies in page pixels.
func (r AtlasRegion) Rect() Rect {
	w, h := r.Width, r.Height
	if r.Rotated {
		w, h = h, w
	}
	return Rect{float64(r.X), float64(r.Y), float64(w), float64(h)}
}

// Atlas holds one or more page textures and a map of named regions, as
// exported by TexturePacker.
type Atlas struct {
	// Pages contains the page textures indexed by page number.
	Pages   []*Texture
	regions map[string]AtlasRegion
}

// Region returns the region for the given name.
// If the name doesn't exist, it logs a warning in debug mode and returns a
// 1x1 region on the magenta placeholder page.
func (a *Atlas) Region(name string) AtlasRegion {
	if r, ok := a.regions[name]; ok {
		return r
	}
	if globalDebug {
		debugWarn("atlas region %q not found, using magenta placeholder", name)
	}
	return magentaRegion()
}

// Len returns the number of regions.
func (a *Atlas) Len() int { return len(a.regions) }

// Page returns the texture a region lives on; the magenta placeholder for
// unknown pages.
func (a *Atlas) Page(r AtlasRegion) *Texture {
	if r.Page < 0 || r.Page >= len(a.Pages) {
		return ensureMagentaTexture()
	}
	return a.Pages[r.Page]
}

// NewRegionAttachment creates a region attachment showing the named region
// at its untrimmed size, centered on the bone. Trim and rotation are folded
// into the attachment's offsets and UVs.
func (a *Atlas) NewRegionAttachment(name string) *RegionAttachment {
	r := a.Region(name)
	tex := a.Page(r)
	att := NewRegionAttachment(name, tex, r.Rect())

	ow, oh := float64(r.OriginalW), float64(r.OriginalH)
	if ow == 0 || oh == 0 {
		ow, oh = float64(r.Width), float64(r.Height)
	}
	att.Width, att.Height = float64(r.Width), float64(r.Height)
	// Shift the packed quad so the untrimmed rect stays centered.
	att.X = float64(r.OffsetX) + float64(r.Width)/2 - ow/2
	att.Y = float64(r.OffsetY) + float64(r.Height)/2 - oh/2

	if r.Rotated {
		src := r.Rect()
		tw, th := float64(tex.Width()), float64(tex.Height())
		u0, v0 := float32(src.X/tw), float32(src.Y/th)
		u1, v1 := float32((src.X+src.Width)/tw), float32((src.Y+src.Height)/th)
		// Corners BL, TL, TR, BR sample the page rotated a quarter turn.
		att.UVs = [8]float32{u0, v0, u1, v0, u1, v1, u0, v1}
	}
	att.UpdateOffsets()
	return att
}

// magentaTexture is created on first use; the scene is single-threaded.
var magentaTexture *Texture

func ensureMagentaTexture() *Texture {
	if magentaTexture == nil {
		img := ebiten.NewImage(1, 1)
		img.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
		magentaTexture = NewTexture(img)
	}
	return magentaTexture
}

// magentaPlaceholderPage is a sentinel page index used for magenta placeholders.
const magentaPlaceholderPage = -1

func magentaRegion() AtlasRegion {
	return AtlasRegion{
		Page:      magentaPlaceholderPage,
		Width:     1,
		Height:    1,
		OriginalW: 1,
		OriginalH: 1,
	}
}

// LoadAtlas parses TexturePacker JSON data and associates the given page
// textures. Supports both the hash format (single "frames" object) and the
// array format ("textures" array with per-page frame lists).
func LoadAtlas(jsonData []byte, pages []*Texture) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("thicket: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:   pages,
		regions: make(map[string]AtlasRegion),
	}

	switch {
	case probe.Textures != nil:
		if err := parseArrayFormat(probe.Textures, atlas); err != nil {
			return nil, err
		}
	case probe.Frames != nil:
		if err := parseHashFrames(probe.Frames, 0, atlas); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("thicket: atlas JSON has neither \"frames\" nor \"textures\" key")
	}
	return atlas, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

func parseHashFrames(raw json.RawMessage, page int, atlas *Atlas) error {
	var frames map[string]jsonFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return fmt.Errorf("thicket: failed to parse atlas frames: %w", err)
	}
	for name, f := range frames {
		atlas.regions[name] = frameToRegion(f, page)
	}
	return nil
}

func parseArrayFormat(raw json.RawMessage, atlas *Atlas) error {
	var textures []jsonTexturePage
	if err := json.Unmarshal(raw, &textures); err != nil {
		return fmt.Errorf("thicket: failed to parse atlas textures array: %w", err)
	}
	for i, tex := range textures {
		for name, f := range tex.Frames {
			atlas.regions[name] = frameToRegion(f, i)
		}
	}
	return nil
}

// frameToRegion converts a TexturePacker frame. Frame sizes are unrotated;
// a rotated frame occupies Height x Width pixels on the page.
func frameToRegion(f jsonFrame, page int) AtlasRegion {
	return AtlasRegion{
		Page:      page,
		X:         f.Frame.X,
		Y:         f.Frame.Y,
		Width:     f.Frame.W,
		Height:    f.Frame.H,
		OriginalW: f.SourceSize.W,
		OriginalH: f.SourceSize.H,
		OffsetX:   f.SpriteSourceSize.X,
		OffsetY:   f.SpriteSourceSize.Y,
		Rotated:   f.Rotated,
	}
}
