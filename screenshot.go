package thicket

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImageFormat selects how screenshots and grid snapshots are encoded.
type ImageFormat uint8

const (
	FormatPNG ImageFormat = iota
	FormatWebP
)

// Ext returns the file extension for the format, without the dot.
func (f ImageFormat) Ext() string {
	if f == FormatWebP {
		return "webp"
	}
	return "png"
}

// Screenshot queues a labeled screenshot to be captured at the end of the
// current frame's Draw call. The file is written to ScreenshotDir with a
// timestamped name in ScreenshotFormat. Safe to call from Update or Draw.
func (s *Scene) Screenshot(label string) {
	s.screenshotQueue = append(s.screenshotQueue, label)
}

// flushScreenshots captures the rendered frame for every queued label and
// writes one file per label. Called at the end of Scene.Draw.
func (s *Scene) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		debugWarn("screenshot: mkdir %s: %v", s.ScreenshotDir, err)
		s.screenshotQueue = s.screenshotQueue[:0]
		return
	}

	img := readNRGBA(screen, screen.Bounds())
	stamp := time.Now().Format("20060102_150405")

	for _, label := range s.screenshotQueue {
		path := fmt.Sprintf("%s/%s_%s.%s", s.ScreenshotDir, stamp, sanitizeLabel(label), s.ScreenshotFormat.Ext())
		if err := writeImage(path, img, s.ScreenshotFormat); err != nil {
			debugWarn("screenshot: %v", err)
		}
	}

	s.screenshotQueue = s.screenshotQueue[:0]
}

// Snapshot encodes the content area of the grid's capture texture to w.
// The texture holds whatever the last executed capture drew into it.
func (g *GridBase) Snapshot(w io.Writer, format ImageFormat) error {
	cw, ch := g.texture.ContentSize()
	img := readNRGBA(g.texture.Image(), image.Rect(0, 0, cw, ch))
	if err := encodeImage(w, img, format); err != nil {
		return fmt.Errorf("grid snapshot: %w", err)
	}
	return nil
}

// readNRGBA reads the pixels of src within r and converts premultiplied RGBA
// to straight-alpha NRGBA.
func readNRGBA(src *ebiten.Image, r image.Rectangle) *image.NRGBA {
	if r != src.Bounds() {
		src = src.SubImage(r).(*ebiten.Image)
	}
	w, h := r.Dx(), r.Dy()
	pixels := make([]byte, 4*w*h)
	src.ReadPixels(pixels)
	return unpremultiply(pixels, w, h)
}

// unpremultiply converts premultiplied RGBA bytes into an NRGBA image.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// encodeImage writes img to w in the given format.
func encodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	case FormatPNG:
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unknown image format %d", format)
	}
}

// writeImage encodes an image to a file at the given path.
func writeImage(path string, img image.Image, format ImageFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encodeImage(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
