package deck

import (
	"strings"
	"unicode"
)

// TextMeasurer is the measurement half of the drawing capability. Layout
// decisions depend only on this, so the wrap and auto-fit logic runs without
// a raster surface.
type TextMeasurer interface {
	TextWidth(s string, size float64, bold bool) float64
	LineHeight(size float64) float64
}

// FitResult is the outcome of auto-fitting a text block into a box.
type FitResult struct {
	Lines []string
	Size  float64
	// Truncated is set when even the floor size overflowed the box and
	// trailing lines were dropped.
	Truncated bool
}

// FitText word-wraps (or character-wraps for CJK text) the given string at
// the initial size, then shrinks the font by step until the wrapped block
// fits the box height. At the floor size it keeps as many lines as fit and
// silently drops the rest.
func FitText(m TextMeasurer, text string, boxW, boxH, initialSize, minSize, step float64) FitResult {
	if step <= 0 {
		step = 2
	}
	if minSize <= 0 {
		minSize = 10
	}

	for size := initialSize; size >= minSize; size -= step {
		lines := WrapText(m, text, boxW, size)
		if float64(len(lines))*m.LineHeight(size) <= boxH {
			return FitResult{Lines: lines, Size: size}
		}
	}

	// Floor reached and still overflowing: keep what fits, no ellipsis.
	lines := WrapText(m, text, boxW, minSize)
	maxLines := int(boxH / m.LineHeight(minSize))
	if maxLines < 1 {
		maxLines = 1
	}
	truncated := false
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	return FitResult{Lines: lines, Size: minSize, Truncated: truncated}
}

// WrapText breaks text into lines no wider than maxWidth at the given size.
// Strings containing any CJK code point wrap character-by-character, since
// those scripts have no word-boundary spaces to break at; everything else
// wraps word-by-word.
func WrapText(m TextMeasurer, text string, maxWidth, size float64) []string {
	if text == "" {
		return nil
	}
	if ContainsCJK(text) {
		return wrapRunes(m, text, maxWidth, size)
	}
	return wrapWords(m, text, maxWidth, size)
}

func wrapWords(m TextMeasurer, text string, maxWidth, size float64) []string {
	var lines []string
	var cur strings.Builder

	for _, word := range strings.Fields(text) {
		candidate := word
		if cur.Len() > 0 {
			candidate = cur.String() + " " + word
		}
		if m.TextWidth(candidate, size, false) <= maxWidth || cur.Len() == 0 {
			cur.Reset()
			cur.WriteString(candidate)
			continue
		}
		lines = append(lines, cur.String())
		cur.Reset()
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func wrapRunes(m TextMeasurer, text string, maxWidth, size float64) []string {
	var lines []string
	var cur strings.Builder

	for _, r := range text {
		if r == '\n' {
			lines = append(lines, cur.String())
			cur.Reset()
			continue
		}
		candidate := cur.String() + string(r)
		if m.TextWidth(candidate, size, false) <= maxWidth || cur.Len() == 0 {
			cur.Reset()
			cur.WriteString(candidate)
			continue
		}
		lines = append(lines, cur.String())
		cur.Reset()
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// ContainsCJK reports whether s contains any Han, Hiragana, Katakana or
// Hangul code point.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) ||
			unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) ||
			unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
