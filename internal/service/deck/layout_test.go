package deck

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMeasurer gives every rune a width proportional to the font size, which
// makes wrap and fit results exactly predictable without loading a font.
type fakeMeasurer struct{}

func (fakeMeasurer) TextWidth(s string, size float64, bold bool) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.6
}

func (fakeMeasurer) LineHeight(size float64) float64 {
	return size * 1.2
}

func TestWrapText(t *testing.T) {
	m := fakeMeasurer{}

	t.Run("latin wraps at word boundaries", func(t *testing.T) {
		// At size 10 each rune is 6 wide; 100 wide fits 16 runes.
		lines := WrapText(m, "the quick brown fox jumps over the lazy dog", 100, 10)
		require.NotEmpty(t, lines)
		for _, line := range lines {
			assert.LessOrEqual(t, m.TextWidth(line, 10, false), 100.0, line)
			assert.False(t, strings.HasPrefix(line, " "))
			assert.False(t, strings.HasSuffix(line, " "))
		}
		// Words are never split.
		rejoined := strings.Fields(strings.Join(lines, " "))
		assert.Equal(t, strings.Fields("the quick brown fox jumps over the lazy dog"), rejoined)
	})

	t.Run("cjk wraps per character", func(t *testing.T) {
		text := "這是一間寬敞明亮的客廳設計"
		lines := WrapText(m, text, 60, 10) // 10 runes per line at most
		require.NotEmpty(t, lines)
		for _, line := range lines {
			assert.LessOrEqual(t, m.TextWidth(line, 10, false), 60.0, line)
		}
		assert.Equal(t, text, strings.Join(lines, ""))
	})

	t.Run("mixed latin and cjk takes the character-wrap path", func(t *testing.T) {
		// At size 10 each rune is 6 wide, so 36 fits 6 runes per line.
		// Word-wrapping this string can only break at the two spaces;
		// character-wrapping is allowed to split 客廳 across lines.
		text := "Open 客廳 plan"

		lines := WrapText(m, text, 36, 10)
		assert.Equal(t, []string{"Open 客", "廳 plan"}, lines)
		assert.Equal(t, wrapRunes(m, text, 36, 10), lines)

		// The word-wrap result breaks at different positions entirely.
		wordLines := wrapWords(m, text, 36, 10)
		assert.Equal(t, []string{"Open", "客廳", "plan"}, wordLines)
		assert.NotEqual(t, wordLines, lines)
	})

	t.Run("an overlong word gets its own line", func(t *testing.T) {
		lines := WrapText(m, "a pneumonoultramicroscopic b", 60, 10)
		assert.Contains(t, lines, "pneumonoultramicroscopic")
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Nil(t, WrapText(m, "", 100, 10))
	})
}

func TestContainsCJK(t *testing.T) {
	assert.True(t, ContainsCJK("現代風格"))
	assert.True(t, ContainsCJK("ダイニング"))
	assert.True(t, ContainsCJK("ひらがな"))
	assert.True(t, ContainsCJK("한국어"))
	assert.True(t, ContainsCJK("mixed 客廳 text"))
	assert.False(t, ContainsCJK("plain latin text"))
	assert.False(t, ContainsCJK("émigré café"))
}

func TestFitText(t *testing.T) {
	m := fakeMeasurer{}

	t.Run("fits at the initial size when the box is large", func(t *testing.T) {
		fit := FitText(m, "short title", 1000, 200, 40, 20, 4)
		assert.Equal(t, 40.0, fit.Size)
		assert.False(t, fit.Truncated)
		assert.Equal(t, []string{"short title"}, fit.Lines)
	})

	t.Run("shrinks until the block fits the height", func(t *testing.T) {
		long := strings.Repeat("word ", 40)
		fit := FitText(m, long, 300, 100, 40, 10, 2)
		assert.Less(t, fit.Size, 40.0)
		assert.GreaterOrEqual(t, fit.Size, 10.0)
		assert.False(t, fit.Truncated)

		// The chosen size actually fits.
		total := float64(len(fit.Lines)) * m.LineHeight(fit.Size)
		assert.LessOrEqual(t, total, 100.0)
	})

	t.Run("floor size truncates without ellipsis", func(t *testing.T) {
		long := strings.Repeat("word ", 400)
		fit := FitText(m, long, 200, 50, 24, 16, 4)
		assert.Equal(t, 16.0, fit.Size)
		assert.True(t, fit.Truncated)

		maxLines := int(50 / m.LineHeight(16))
		assert.Len(t, fit.Lines, maxLines)
		for _, line := range fit.Lines {
			assert.False(t, strings.HasSuffix(line, "..."))
			assert.False(t, strings.HasSuffix(line, "…"))
		}
	})

	t.Run("degenerate box keeps at least one line", func(t *testing.T) {
		fit := FitText(m, "some text that will not fit", 40, 1, 24, 16, 4)
		assert.NotEmpty(t, fit.Lines)
	})
}
