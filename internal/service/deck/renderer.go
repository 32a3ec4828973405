package deck

import (
	"fmt"
	"image"
	"image/color"

	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// Slides are rendered at a fixed 16:9 raster resolution.
const (
	SlideWidth  = 1920
	SlideHeight = 1080
)

// SceneImage pairs a decoded viewpoint image with its AI-authored copy.
type SceneImage struct {
	ViewpointIndex int
	Image          image.Image
	Title          string
	Description    string
}

// Renderer paints presentation slides. Rendering is a pure function of
// (text, plan, scenes, theme): the same inputs yield pixel-identical output,
// so editing any text field simply re-renders the whole deck.
type Renderer struct {
	fonts *FontCache
}

func NewRenderer(fonts *FontCache) *Renderer {
	if fonts == nil {
		fonts = NewFontCache()
	}
	return &Renderer{fonts: fonts}
}

// RenderDeck produces the full slide sequence: title, concept, one slide per
// scene, conclusion. Every call regenerates every slide.
func (r *Renderer) RenderDeck(text PresentationText, plan image.Image, scenes []SceneImage, theme Theme) ([]*image.RGBA, error) {
	if len(scenes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "deck needs at least one scene image")
	}

	slides := make([]*image.RGBA, 0, len(scenes)+3)

	cv := newRasterCanvas(SlideWidth, SlideHeight, r.fonts)
	r.renderTitle(cv, text, scenes, theme)
	slides = append(slides, cv.img)

	if plan != nil {
		cv = newRasterCanvas(SlideWidth, SlideHeight, r.fonts)
		r.renderConcept(cv, text, plan, theme)
		slides = append(slides, cv.img)
	}

	for i, sc := range scenes {
		cv = newRasterCanvas(SlideWidth, SlideHeight, r.fonts)
		r.renderViewpoint(cv, sc, i+1, len(scenes), theme)
		slides = append(slides, cv.img)
	}

	cv = newRasterCanvas(SlideWidth, SlideHeight, r.fonts)
	r.renderConclusion(cv, text, scenes[0], theme)
	slides = append(slides, cv.img)

	return slides, nil
}

// --- slide layouts ---

func (r *Renderer) renderTitle(cv Canvas, text PresentationText, scenes []SceneImage, theme Theme) {
	w, h := cv.Size()
	full := image.Rect(0, 0, w, h)
	cv.FillRect(full, theme.Background)

	// Collage background: up to four scenes in a 2x2 grid, full-bleed per cell.
	n := len(scenes)
	if n > 4 {
		n = 4
	}
	cols := 2
	rows := (n + 1) / 2
	if n == 1 {
		cols, rows = 1, 1
	}
	cellW, cellH := w/cols, h/rows
	for i := 0; i < n; i++ {
		cx := (i % cols) * cellW
		cy := (i / cols) * cellH
		dst := image.Rect(cx, cy, cx+cellW, cy+cellH)
		src := fullBleedCrop(scenes[i].Image.Bounds(), cellW, cellH)
		cv.DrawImageRegion(scenes[i].Image, src, dst)
	}

	// Dark overlay so the title reads over any collage.
	cv.FillRect(full, color.RGBA{A: 0x99})

	titleBox := image.Rect(w/8, h/3, w*7/8, h/3+220)
	fit := FitText(cv, text.Title, float64(titleBox.Dx()), float64(titleBox.Dy()), 96, 40, 4)
	drawBlock(cv, fit, titleBox, alignCenter, true, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	if text.Subtitle != "" {
		subBox := image.Rect(w/6, titleBox.Max.Y+20, w*5/6, titleBox.Max.Y+140)
		fit = FitText(cv, text.Subtitle, float64(subBox.Dx()), float64(subBox.Dy()), 40, 22, 2)
		drawBlock(cv, fit, subBox, alignCenter, false, color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF})
	}

	footer := fmt.Sprintf("%d viewpoints", len(scenes))
	cv.DrawText(footer, 80, h-48, 24, false, theme.Footer)
}

func (r *Renderer) renderConcept(cv Canvas, text PresentationText, plan image.Image, theme Theme) {
	w, h := cv.Size()
	cv.FillRect(image.Rect(0, 0, w, h), theme.Background)

	// Plan docked to the right side, full-bleed within its panel.
	planPanel := image.Rect(w*11/20, 0, w, h)
	src := fullBleedCrop(plan.Bounds(), planPanel.Dx(), planPanel.Dy())
	cv.DrawImageRegion(plan, src, planPanel)

	margin := 80
	headBox := image.Rect(margin, margin, planPanel.Min.X-margin/2, margin+120)
	fit := FitText(cv, text.ConceptTitle, float64(headBox.Dx()), float64(headBox.Dy()), 56, 28, 2)
	drawBlock(cv, fit, headBox, alignLeft, true, theme.TextPrimary)

	// Concept entries share the remaining column, each auto-sized on its own.
	top := headBox.Max.Y + 40
	bottom := h - margin
	if len(text.Concepts) == 0 {
		return
	}
	entryH := (bottom - top) / len(text.Concepts)
	for i, entry := range text.Concepts {
		box := image.Rect(margin, top+i*entryH, planPanel.Min.X-margin/2, top+i*entryH+entryH-16)
		line := entry.Title
		if entry.Description != "" {
			line = entry.Title + ": " + entry.Description
		}
		fit := FitText(cv, line, float64(box.Dx()), float64(box.Dy()), 32, 16, 2)
		drawBlock(cv, fit, box, alignLeft, false, theme.TextSecondary)

		// Accent marker in front of each entry.
		cv.FillRect(image.Rect(box.Min.X-24, box.Min.Y+8, box.Min.X-12, box.Min.Y+20), theme.Accent)
	}
}

func (r *Renderer) renderViewpoint(cv Canvas, sc SceneImage, index, total int, theme Theme) {
	w, h := cv.Size()

	// Full-bleed scene photo.
	src := fullBleedCrop(sc.Image.Bounds(), w, h)
	cv.DrawImageRegion(sc.Image, src, image.Rect(0, 0, w, h))

	// Bottom gradient panel carrying the copy.
	panelTop := h * 13 / 20
	cv.FillVGradient(image.Rect(0, panelTop, w, h), color.RGBA{A: 0x00}, color.RGBA{A: 0xD9})

	margin := 96
	titleBox := image.Rect(margin, h*15/20, w-margin, h*15/20+90)
	fit := FitText(cv, sc.Title, float64(titleBox.Dx()), float64(titleBox.Dy()), 54, 28, 2)
	drawBlock(cv, fit, titleBox, alignLeft, true, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	descBox := image.Rect(margin, titleBox.Max.Y+12, w-margin, h-72)
	fit = FitText(cv, sc.Description, float64(descBox.Dx()), float64(descBox.Dy()), 30, 16, 2)
	drawBlock(cv, fit, descBox, alignLeft, false, color.RGBA{R: 0xDD, G: 0xDD, B: 0xDD, A: 0xFF})

	cv.DrawText(fmt.Sprintf("%02d / %02d", index, total), w-margin-120, 80, 26, false, theme.Accent)
}

func (r *Renderer) renderConclusion(cv Canvas, text PresentationText, sc SceneImage, theme Theme) {
	w, h := cv.Size()

	// Split layout: image on the left half, flat panel on the right.
	left := image.Rect(0, 0, w/2, h)
	src := fullBleedCrop(sc.Image.Bounds(), left.Dx(), left.Dy())
	cv.DrawImageRegion(sc.Image, src, left)

	right := image.Rect(w/2, 0, w, h)
	cv.FillRect(right, theme.Background)

	margin := 96
	titleBox := image.Rect(right.Min.X+margin, h/5, right.Max.X-margin, h/5+160)
	fit := FitText(cv, text.ConclusionTitle, float64(titleBox.Dx()), float64(titleBox.Dy()), 64, 30, 2)
	drawBlock(cv, fit, titleBox, alignLeft, true, theme.TextPrimary)

	cv.FillRect(image.Rect(titleBox.Min.X, titleBox.Max.Y+16, titleBox.Min.X+140, titleBox.Max.Y+22), theme.Accent)

	bodyBox := image.Rect(right.Min.X+margin, titleBox.Max.Y+60, right.Max.X-margin, h-margin)
	fit = FitText(cv, text.ConclusionBody, float64(bodyBox.Dx()), float64(bodyBox.Dy()), 32, 16, 2)
	drawBlock(cv, fit, bodyBox, alignLeft, false, theme.TextSecondary)
}

// --- helpers ---

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
)

func drawBlock(cv Canvas, fit FitResult, box image.Rectangle, align alignment, bold bool, col color.RGBA) {
	lineH := int(cv.LineHeight(fit.Size))
	y := box.Min.Y
	for _, line := range fit.Lines {
		y += lineH
		if y > box.Max.Y+lineH {
			break
		}
		x := box.Min.X
		if align == alignCenter {
			x = box.Min.X + (box.Dx()-int(cv.TextWidth(line, fit.Size, bold)))/2
		}
		cv.DrawText(line, x, y, fit.Size, bold, col)
	}
}

// fullBleedCrop returns the centered sub-rectangle of src whose aspect ratio
// matches dstW:dstH, cropping symmetrically along whichever axis has excess
// so the drawn image fills the target without letterboxing.
func fullBleedCrop(src image.Rectangle, dstW, dstH int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || dstW == 0 || dstH == 0 {
		return src
	}

	srcAspect := float64(sw) / float64(sh)
	dstAspect := float64(dstW) / float64(dstH)

	if srcAspect > dstAspect {
		// Source is relatively wider: crop left and right.
		cropW := int(float64(sh) * dstAspect)
		offset := (sw - cropW) / 2
		return image.Rect(src.Min.X+offset, src.Min.Y, src.Min.X+offset+cropW, src.Max.Y)
	}
	// Source is relatively taller: crop top and bottom.
	cropH := int(float64(sw) / dstAspect)
	offset := (sh - cropH) / 2
	return image.Rect(src.Min.X, src.Min.Y+offset, src.Max.X, src.Min.Y+offset+cropH)
}
