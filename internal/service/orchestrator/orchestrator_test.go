package orchestrator

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/deck"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/generation"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/prompt"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/scene"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/storage"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

func pngImage(t *testing.T, c color.RGBA) *gemini.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 18))
	for y := 0; y < 18; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &gemini.Image{MimeType: "image/png", Data: buf.Bytes()}
}

// newLocalOrchestrator builds an orchestrator with no upstream client. Only
// the paths that stay on this host are exercised; the generation flows are
// covered in their own packages.
func newLocalOrchestrator(t *testing.T) (*Orchestrator, *scene.Store) {
	t.Helper()
	log := logger.Nop()
	store := scene.NewStore()
	retryer := generation.NewRetryer(generation.SimplePolicy(), log)
	orch := New(
		nil,
		prompt.New(),
		generation.NewCoordinator(retryer, log),
		generation.NewCoordinator(retryer, log),
		store,
		deck.NewRenderer(nil),
		storage.New(t.TempDir(), "/files", log),
		nil,
		log,
	)
	return orch, store
}

func readyScene(t *testing.T, store *scene.Store, idx int, c color.RGBA) {
	t.Helper()
	token, err := store.Begin(idx)
	require.NoError(t, err)
	require.True(t, store.Complete(idx, token, pngImage(t, c)))
}

func testCopy() deck.PresentationText {
	return deck.PresentationText{
		Title:           "Courtyard House",
		Subtitle:        "Interior study",
		Scenes:          []deck.SceneCopy{{Title: "Kitchen", Description: "Bright and open."}},
		ConclusionTitle: "Thanks",
		ConclusionBody:  "A consistent palette throughout.",
	}
}

func TestRenderSlides(t *testing.T) {
	t.Run("requires presentation text", func(t *testing.T) {
		orch, store := newLocalOrchestrator(t)
		readyScene(t, store, 1, color.RGBA{R: 0xFF, A: 0xFF})

		_, err := orch.RenderSlides("modern")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("requires ready scenes", func(t *testing.T) {
		orch, _ := newLocalOrchestrator(t)
		orch.UpdatePresentationText(testCopy())

		_, err := orch.RenderSlides("modern")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})

	t.Run("renders title, scene and conclusion slides", func(t *testing.T) {
		orch, store := newLocalOrchestrator(t)
		readyScene(t, store, 1, color.RGBA{R: 0xFF, A: 0xFF})
		readyScene(t, store, 2, color.RGBA{G: 0xFF, A: 0xFF})
		orch.UpdatePresentationText(testCopy())

		slides, err := orch.RenderSlides("warm")
		require.NoError(t, err)
		// title + two viewpoints + conclusion; no plan means no concept slide
		assert.Len(t, slides, 4)
	})

	t.Run("errored scenes are excluded", func(t *testing.T) {
		orch, store := newLocalOrchestrator(t)
		readyScene(t, store, 1, color.RGBA{B: 0xFF, A: 0xFF})
		token, _ := store.Begin(2)
		store.Fail(2, token, "upstream refused")
		orch.UpdatePresentationText(testCopy())

		slides, err := orch.RenderSlides("modern")
		require.NoError(t, err)
		assert.Len(t, slides, 3)
	})
}

func TestExportDeck(t *testing.T) {
	orch, store := newLocalOrchestrator(t)
	readyScene(t, store, 1, color.RGBA{R: 0x80, G: 0x40, A: 0xFF})
	orch.UpdatePresentationText(testCopy())

	var stages []string
	url, err := orch.ExportDeck("deck-test", "dark", func(event ProgressEvent) {
		stages = append(stages, event.Stage)
	})
	require.NoError(t, err)
	assert.Equal(t, "/files/deck-test.zip", url)
	assert.Equal(t, []string{"rendering", "exporting", "complete"}, stages)
}

func TestClearScenes(t *testing.T) {
	orch, store := newLocalOrchestrator(t)
	readyScene(t, store, 1, color.RGBA{A: 0xFF})
	orch.UpdatePresentationText(testCopy())

	orch.ClearScenes()
	assert.Empty(t, orch.Scenes())

	_, err := orch.RenderSlides("modern")
	assert.Error(t, err, "cleared session has no text or scenes")
}

func TestRestoreScene(t *testing.T) {
	orch, store := newLocalOrchestrator(t)

	first := pngImage(t, color.RGBA{R: 0xFF, A: 0xFF})
	second := pngImage(t, color.RGBA{G: 0xFF, A: 0xFF})

	token, _ := store.Begin(1)
	require.True(t, store.Complete(1, token, first))
	token, _ = store.Begin(1)
	require.True(t, store.Complete(1, token, second))

	sc, err := orch.RestoreScene(1)
	require.NoError(t, err)
	assert.Equal(t, first, sc.Current)

	_, err = orch.RestoreScene(9)
	assert.Error(t, err)
}
