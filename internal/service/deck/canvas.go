package deck

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas is the minimal 2D drawing capability the slide layouts are written
// against. Keeping the surface this small makes the renderer host-independent
// and testable without a display.
type Canvas interface {
	TextMeasurer
	Size() (w, h int)
	FillRect(r image.Rectangle, c color.RGBA)
	// FillVGradient composites a vertical top-to-bottom gradient over the
	// region, honoring the alpha of both stops.
	FillVGradient(r image.Rectangle, top, bottom color.RGBA)
	// DrawImageRegion maps srcRect of src onto dstRect, scaling as needed.
	DrawImageRegion(src image.Image, srcRect, dstRect image.Rectangle)
	// DrawText draws a single line with its baseline at y.
	DrawText(s string, x, y int, size float64, bold bool, c color.RGBA)
}

// rasterCanvas renders onto an RGBA buffer using cached font faces.
type rasterCanvas struct {
	img   *image.RGBA
	fonts *FontCache
}

func newRasterCanvas(w, h int, fonts *FontCache) *rasterCanvas {
	return &rasterCanvas{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		fonts: fonts,
	}
}

func (c *rasterCanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *rasterCanvas) FillRect(r image.Rectangle, col color.RGBA) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), &image.Uniform{col}, image.Point{}, draw.Over)
}

func (c *rasterCanvas) FillVGradient(r image.Rectangle, top, bottom color.RGBA) {
	r = r.Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	span := r.Dy() - 1
	if span < 1 {
		span = 1
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := float64(y-r.Min.Y) / float64(span)
		col := lerpRGBA(top, bottom, t)
		row := image.Rect(r.Min.X, y, r.Max.X, y+1)
		draw.Draw(c.img, row, &image.Uniform{col}, image.Point{}, draw.Over)
	}
}

func (c *rasterCanvas) DrawImageRegion(src image.Image, srcRect, dstRect image.Rectangle) {
	dstRect = dstRect.Intersect(c.img.Bounds())
	if dstRect.Empty() || srcRect.Empty() {
		return
	}
	sw, sh := srcRect.Dx(), srcRect.Dy()
	dw, dh := dstRect.Dx(), dstRect.Dy()

	// Nearest-neighbor region scaling.
	for y := 0; y < dh; y++ {
		sy := srcRect.Min.Y + y*sh/dh
		for x := 0; x < dw; x++ {
			sx := srcRect.Min.X + x*sw/dw
			c.img.Set(dstRect.Min.X+x, dstRect.Min.Y+y, src.At(sx, sy))
		}
	}
}

func (c *rasterCanvas) TextWidth(s string, size float64, bold bool) float64 {
	face := c.fonts.Face(size, bold)
	return float64(font.MeasureString(face, s).Ceil())
}

func (c *rasterCanvas) LineHeight(size float64) float64 {
	face := c.fonts.Face(size, false)
	h := face.Metrics().Height.Ceil()
	if h <= 0 {
		h = int(size * 1.2)
	}
	return float64(h)
}

func (c *rasterCanvas) DrawText(s string, x, y int, size float64, bold bool, col color.RGBA) {
	face := c.fonts.Face(size, bold)
	d := &font.Drawer{
		Dst:  c.img,
		Src:  &image.Uniform{col},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}
