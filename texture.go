package thicket

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Texture is an opaque texture handle: pixel dimensions, the content area
// actually used, and whether its pixels carry premultiplied alpha.
// Offscreen textures allocate their ebiten.Image on first use.
type Texture struct {
	image         *ebiten.Image
	w, h          int
	contentW      int
	contentH      int
	premultiplied bool
	offscreen     bool
}

// NewTexture wraps an existing image. Ebitengine images hold premultiplied
// pixels, so the texture reports premultiplied alpha.
func NewTexture(img *ebiten.Image) *Texture {
	b := img.Bounds()
	return &Texture{
		image:         img,
		w:             b.Dx(),
		h:             b.Dy(),
		contentW:      b.Dx(),
		contentH:      b.Dy(),
		premultiplied: true,
	}
}

// NewRenderTexture creates an offscreen texture whose pixel size is the next
// power of two covering (w, h). The content size stays (w, h).
func NewRenderTexture(w, h int) *Texture {
	return &Texture{
		w:             nextPowerOfTwo(w),
		h:             nextPowerOfTwo(h),
		contentW:      w,
		contentH:      h,
		premultiplied: true,
		offscreen:     true,
	}
}

// NewTextureSize describes a texture of the given pixel and content size
// without allocating GPU memory until Image is called.
func NewTextureSize(w, h, contentW, contentH int, premultiplied bool) *Texture {
	return &Texture{
		w:             w,
		h:             h,
		contentW:      contentW,
		contentH:      contentH,
		premultiplied: premultiplied,
		offscreen:     true,
	}
}

// Image returns the underlying image, allocating it on first call for
// offscreen textures.
func (t *Texture) Image() *ebiten.Image {
	if t.image == nil {
		t.image = ebiten.NewImageWithOptions(
			image.Rect(0, 0, t.w, t.h),
			&ebiten.NewImageOptions{Unmanaged: t.offscreen},
		)
	}
	return t.image
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.w }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.h }

// ContentSize returns the used area of the texture in pixels.
func (t *Texture) ContentSize() (w, h int) { return t.contentW, t.contentH }

// HasPremultipliedAlpha reports whether texel colors are premultiplied.
func (t *Texture) HasPremultipliedAlpha() bool { return t.premultiplied }

// SetPremultipliedAlpha overrides the premultiplied flag, e.g. for textures
// loaded from straight-alpha sources.
func (t *Texture) SetPremultipliedAlpha(v bool) { t.premultiplied = v }

// Dispose deallocates the underlying image. The texture may be used again;
// an offscreen texture reallocates on the next Image call.
func (t *Texture) Dispose() {
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
