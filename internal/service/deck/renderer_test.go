package deck

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSceneImage(idx int, w, h int) SceneImage {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(idx * 40), A: 0xFF})
		}
	}
	return SceneImage{
		ViewpointIndex: idx,
		Image:          img,
		Title:          "Living Room",
		Description:    "A bright, open living area with generous daylight.",
	}
}

func testText() PresentationText {
	return PresentationText{
		Title:        "Riverside Apartment",
		Subtitle:     "A three-viewpoint interior study",
		ConceptTitle: "Design Concept",
		Concepts: []ConceptEntry{
			{Title: "Light", Description: "daylight-first layout"},
			{Title: "Flow", Description: "open circulation between rooms"},
		},
		Scenes: []SceneCopy{
			{Title: "Living Room", Description: "The heart of the home."},
		},
		ConclusionTitle: "Thank You",
		ConclusionBody:  "Every room follows the same material palette.",
	}
}

func TestRenderDeck(t *testing.T) {
	r := NewRenderer(NewFontCache())

	t.Run("slide count with plan", func(t *testing.T) {
		scenes := []SceneImage{testSceneImage(1, 320, 200), testSceneImage(2, 320, 200)}
		plan := image.NewRGBA(image.Rect(0, 0, 400, 300))

		slides, err := r.RenderDeck(testText(), plan, scenes, ThemeByName("modern"))
		require.NoError(t, err)
		// title + concept + one per scene + conclusion
		assert.Len(t, slides, 5)
		for _, s := range slides {
			assert.Equal(t, SlideWidth, s.Bounds().Dx())
			assert.Equal(t, SlideHeight, s.Bounds().Dy())
		}
	})

	t.Run("no plan skips the concept slide", func(t *testing.T) {
		scenes := []SceneImage{testSceneImage(1, 320, 200)}
		slides, err := r.RenderDeck(testText(), nil, scenes, ThemeByName("dark"))
		require.NoError(t, err)
		assert.Len(t, slides, 3)
	})

	t.Run("no scenes is an error", func(t *testing.T) {
		_, err := r.RenderDeck(testText(), nil, nil, ThemeByName("modern"))
		assert.Error(t, err)
	})

	t.Run("identical inputs render pixel-identical decks", func(t *testing.T) {
		scenes := []SceneImage{testSceneImage(1, 320, 200), testSceneImage(2, 200, 320)}
		plan := image.NewRGBA(image.Rect(0, 0, 400, 300))

		first, err := r.RenderDeck(testText(), plan, scenes, ThemeByName("warm"))
		require.NoError(t, err)
		second, err := r.RenderDeck(testText(), plan, scenes, ThemeByName("warm"))
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Pix, second[i].Pix, "slide %d", i)
		}
	})

	t.Run("edited copy changes the rendered slide", func(t *testing.T) {
		scenes := []SceneImage{testSceneImage(1, 320, 200)}

		base, err := r.RenderDeck(testText(), nil, scenes, ThemeByName("modern"))
		require.NoError(t, err)

		edited := testText()
		edited.Title = "Completely Different Title"
		changed, err := r.RenderDeck(edited, nil, scenes, ThemeByName("modern"))
		require.NoError(t, err)

		assert.NotEqual(t, base[0].Pix, changed[0].Pix)
	})
}

func TestFullBleedCrop(t *testing.T) {
	t.Run("wider source crops left and right", func(t *testing.T) {
		src := image.Rect(0, 0, 400, 100) // 4:1 into 1:1
		crop := fullBleedCrop(src, 100, 100)
		assert.Equal(t, 100, crop.Dx())
		assert.Equal(t, 100, crop.Dy())
		// centered: 150 cut from each side
		assert.Equal(t, 150, crop.Min.X)
		assert.Equal(t, 0, crop.Min.Y)
	})

	t.Run("taller source crops top and bottom", func(t *testing.T) {
		src := image.Rect(0, 0, 100, 400)
		crop := fullBleedCrop(src, 100, 100)
		assert.Equal(t, 100, crop.Dx())
		assert.Equal(t, 100, crop.Dy())
		assert.Equal(t, 150, crop.Min.Y)
		assert.Equal(t, 0, crop.Min.X)
	})

	t.Run("matching aspect is untouched", func(t *testing.T) {
		src := image.Rect(0, 0, 200, 100)
		crop := fullBleedCrop(src, 100, 50)
		assert.Equal(t, src, crop)
	})

	t.Run("offset source keeps its origin", func(t *testing.T) {
		src := image.Rect(10, 20, 410, 120) // 400x100
		crop := fullBleedCrop(src, 100, 100)
		assert.Equal(t, 160, crop.Min.X)
		assert.Equal(t, 20, crop.Min.Y)
	})

	t.Run("degenerate rectangles pass through", func(t *testing.T) {
		src := image.Rect(0, 0, 0, 0)
		assert.Equal(t, src, fullBleedCrop(src, 100, 100))
	})
}

func TestThemeByName(t *testing.T) {
	assert.Equal(t, "warm", ThemeByName("warm").Name)
	assert.Equal(t, "modern", ThemeByName("does-not-exist").Name, "unknown theme falls back")
	assert.Equal(t, "modern", ThemeByName("").Name)
	assert.Len(t, ThemeNames(), 3)
}
