package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/limiter"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/deck"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/generation"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/prompt"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/scene"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/storage"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// ProgressEvent reports wizard progress to the UI layer.
type ProgressEvent struct {
	Stage    string
	Message  string
	Progress int
}

type ProgressCallback func(event ProgressEvent)

// Orchestrator drives the wizard: plan renders, interior scenes,
// presentation copy and the exported deck. Session state (scenes, plan
// image, presentation text) lives in memory only.
type Orchestrator struct {
	gemini     *gemini.Client
	prompts    *prompt.Builder
	planCoord  *generation.Coordinator
	sceneCoord *generation.Coordinator
	scenes     *scene.Store
	renderer   *deck.Renderer
	storage    *storage.Service
	limiter    *limiter.Limiter
	logger     *logger.Logger

	mu        sync.Mutex
	planImage *gemini.Image
	presText  *deck.PresentationText
}

func New(
	client *gemini.Client,
	prompts *prompt.Builder,
	planCoord *generation.Coordinator,
	sceneCoord *generation.Coordinator,
	scenes *scene.Store,
	renderer *deck.Renderer,
	storageSvc *storage.Service,
	lim *limiter.Limiter,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		gemini:     client,
		prompts:    prompts,
		planCoord:  planCoord,
		sceneCoord: sceneCoord,
		scenes:     scenes,
		renderer:   renderer,
		storage:    storageSvc,
		limiter:    lim,
		logger:     log,
	}
}

// --- plan renders ---

type RenderPlanRequest struct {
	RequestID      string
	Kind           prompt.Kind // clean-render | material-pass | dollhouse
	Plan           gemini.Image
	Instruction    string
	Style          string
	CandidateCount int
}

// RenderPlan runs a multi-candidate architectural render of the floor plan.
func (o *Orchestrator) RenderPlan(ctx context.Context, req *RenderPlanRequest) ([]*gemini.Image, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	o.logger.Info("rendering floor plan",
		"request_id", req.RequestID, "kind", req.Kind, "candidates", req.CandidateCount)

	refs := []gemini.Image{req.Plan}
	images, err := o.planCoord.Generate(ctx, generation.Request{
		CandidateCount: req.CandidateCount,
		BuildPrompt: func() string {
			return o.prompts.Build(prompt.Params{
				Kind:        req.Kind,
				Instruction: req.Instruction,
				Style:       req.Style,
			})
		},
		Fallback: o.prompts.FallbackFor,
		Call: func(ctx context.Context, p string) (*gemini.Image, error) {
			return o.gemini.GenerateImage(ctx, p, refs, nil)
		},
	})
	if err != nil {
		o.logger.Error("plan render failed", "request_id", req.RequestID, "error", err)
		return nil, err
	}

	// The latest successful render becomes the working plan for scenes.
	o.mu.Lock()
	o.planImage = images[0]
	o.mu.Unlock()

	return images, nil
}

type EditPlanRequest struct {
	RequestID      string
	Base           gemini.Image
	Mask           gemini.Image
	Instruction    string
	CandidateCount int
}

// EditPlan runs a masked edit against a rendered plan.
func (o *Orchestrator) EditPlan(ctx context.Context, req *EditPlanRequest) ([]*gemini.Image, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	refs := []gemini.Image{req.Base}
	mask := req.Mask
	images, err := o.planCoord.Generate(ctx, generation.Request{
		CandidateCount: req.CandidateCount,
		BuildPrompt: func() string {
			return o.prompts.Build(prompt.Params{
				Kind:        prompt.KindMaskedEdit,
				Instruction: req.Instruction,
			})
		},
		Fallback: o.prompts.FallbackFor,
		Call: func(ctx context.Context, p string) (*gemini.Image, error) {
			return o.gemini.GenerateImage(ctx, p, refs, &mask)
		},
	})
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.planImage = images[0]
	o.mu.Unlock()

	return images, nil
}

// --- scenes ---

type GenerateScenesRequest struct {
	RequestID  string
	Plan       gemini.Image
	Viewpoints []int
	Style      string
}

// GenerateScenes creates one scene per viewpoint in a single batch. Each
// viewpoint settles independently; a late result belonging to a superseded
// batch is dropped by the store's token check.
func (o *Orchestrator) GenerateScenes(ctx context.Context, req *GenerateScenesRequest, onProgress ProgressCallback) ([]scene.Scene, error) {
	if len(req.Viewpoints) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no viewpoints selected")
	}

	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	emit := func(stage, message string, progress int) {
		if onProgress != nil {
			onProgress(ProgressEvent{Stage: stage, Message: message, Progress: progress})
		}
	}

	o.mu.Lock()
	o.planImage = &req.Plan
	o.mu.Unlock()

	tokens, err := o.scenes.BeginBatch(req.Viewpoints)
	if err != nil {
		return nil, err
	}
	emit("generating", "generating interior scenes", 10)

	var wg sync.WaitGroup
	for _, idx := range req.Viewpoints {
		wg.Add(1)
		go func(idx int, token uint64) {
			defer wg.Done()

			sc, _ := o.scenes.Get(idx)
			cam := sc.Camera
			images, err := o.sceneCoord.Generate(ctx, generation.Request{
				CandidateCount: 1,
				BuildPrompt: func() string {
					return o.prompts.Build(prompt.Params{
						Kind:      prompt.KindSceneFromPoint,
						Style:     req.Style,
						Viewpoint: idx,
						Camera: &prompt.Camera{
							RotationDeg:       cam.RotationDeg,
							TiltDeg:           cam.TiltDeg,
							ZoomFactor:        cam.ZoomFactor,
							Lighting:          string(sc.Lighting),
							ColorTemperatureK: sc.ColorTemperatureK,
						},
					})
				},
				Fallback: o.prompts.FallbackFor,
				Call: func(ctx context.Context, p string) (*gemini.Image, error) {
					return o.gemini.GenerateImage(ctx, p, []gemini.Image{req.Plan}, nil)
				},
			})
			if err != nil {
				o.logger.Warn("scene generation failed", "viewpoint", idx, "error", err)
				o.scenes.Fail(idx, token, err.Error())
				return
			}
			if !o.scenes.Complete(idx, token, images[0]) {
				o.logger.Debug("stale scene result dropped", "viewpoint", idx)
			}
		}(idx, tokens[idx])
	}
	wg.Wait()

	emit("generated", "interior scenes settled", 90)

	scenes := o.scenes.List()

	// Only the viewpoints of THIS batch count toward the all-fail check;
	// ready scenes left over from earlier batches must not mask it.
	ready := 0
	for _, idx := range req.Viewpoints {
		if sc, ok := o.scenes.Get(idx); ok && sc.Status == scene.StatusReady {
			ready++
		}
	}
	if ready == 0 {
		return scenes, errors.Newf(errors.ErrCodeAllCandidates,
			"all %d viewpoints failed to generate", len(req.Viewpoints))
	}

	emit("complete", "scene generation complete", 100)
	return scenes, nil
}

type SceneUpdateRequest struct {
	Viewpoint         int
	Camera            scene.Camera
	Lighting          scene.Lighting
	ColorTemperatureK int
	Style             string
}

// UpdateSceneCamera stores the clamped camera parameters and regenerates the
// viewpoint from the working plan.
func (o *Orchestrator) UpdateSceneCamera(ctx context.Context, req *SceneUpdateRequest) (scene.Scene, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return scene.Scene{}, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	clamped, err := o.scenes.UpdateCamera(req.Viewpoint, req.Camera, req.Lighting, req.ColorTemperatureK)
	if err != nil {
		return scene.Scene{}, err
	}

	o.mu.Lock()
	plan := o.planImage
	o.mu.Unlock()
	if plan == nil {
		return scene.Scene{}, errors.New(errors.ErrCodeInvalidInput, "no working plan image; render the plan first")
	}

	sc, _ := o.scenes.Get(req.Viewpoint)
	token, err := o.scenes.Begin(req.Viewpoint)
	if err != nil {
		return scene.Scene{}, err
	}

	images, err := o.sceneCoord.Generate(ctx, generation.Request{
		CandidateCount: 1,
		BuildPrompt: func() string {
			return o.prompts.Build(prompt.Params{
				Kind:      prompt.KindSceneFromPoint,
				Style:     req.Style,
				Viewpoint: req.Viewpoint,
				Camera: &prompt.Camera{
					RotationDeg:       clamped.RotationDeg,
					TiltDeg:           clamped.TiltDeg,
					ZoomFactor:        clamped.ZoomFactor,
					Lighting:          string(sc.Lighting),
					ColorTemperatureK: sc.ColorTemperatureK,
				},
			})
		},
		Fallback: o.prompts.FallbackFor,
		Call: func(ctx context.Context, p string) (*gemini.Image, error) {
			return o.gemini.GenerateImage(ctx, p, []gemini.Image{*plan}, nil)
		},
	})
	if err != nil {
		o.scenes.Fail(req.Viewpoint, token, err.Error())
		return scene.Scene{}, err
	}
	o.scenes.Complete(req.Viewpoint, token, images[0])

	out, _ := o.scenes.Get(req.Viewpoint)
	return out, nil
}

type SceneEditRequest struct {
	Viewpoint   int
	Instruction string
	InsertItem  string
}

// EditScene applies an instruction (optionally inserting an object) to the
// current image of a viewpoint.
func (o *Orchestrator) EditScene(ctx context.Context, req *SceneEditRequest) (scene.Scene, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return scene.Scene{}, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	sc, ok := o.scenes.Get(req.Viewpoint)
	if !ok || sc.Current == nil {
		return scene.Scene{}, errors.Newf(errors.ErrCodeInvalidInput, "viewpoint %d has no image to edit", req.Viewpoint)
	}

	token, err := o.scenes.Begin(req.Viewpoint)
	if err != nil {
		return scene.Scene{}, err
	}

	base := sc.Current
	images, err := o.sceneCoord.Generate(ctx, generation.Request{
		CandidateCount: 1,
		BuildPrompt: func() string {
			return o.prompts.Build(prompt.Params{
				Kind:        prompt.KindSceneEdit,
				Instruction: req.Instruction,
				InsertItem:  req.InsertItem,
				Viewpoint:   req.Viewpoint,
			})
		},
		Fallback: o.prompts.FallbackFor,
		Call: func(ctx context.Context, p string) (*gemini.Image, error) {
			return o.gemini.GenerateImage(ctx, p, []gemini.Image{*base}, nil)
		},
	})
	if err != nil {
		o.scenes.Fail(req.Viewpoint, token, err.Error())
		return scene.Scene{}, err
	}
	o.scenes.Complete(req.Viewpoint, token, images[0])

	out, _ := o.scenes.Get(req.Viewpoint)
	return out, nil
}

// RestoreScene puts the first generated image back.
func (o *Orchestrator) RestoreScene(index int) (scene.Scene, error) {
	if err := o.scenes.Restore(index); err != nil {
		return scene.Scene{}, err
	}
	sc, _ := o.scenes.Get(index)
	return sc, nil
}

// Scenes lists the current scene collection.
func (o *Orchestrator) Scenes() []scene.Scene {
	return o.scenes.List()
}

// ClearScenes drops every viewpoint and the working plan.
func (o *Orchestrator) ClearScenes() {
	o.scenes.Clear()
	o.mu.Lock()
	o.planImage = nil
	o.presText = nil
	o.mu.Unlock()
}

// --- presentation ---

// GeneratePresentationText asks the text model for the full structured copy.
// The copy is always regenerated wholesale so it stays consistent across
// slides.
func (o *Orchestrator) GeneratePresentationText(ctx context.Context, language string) (*deck.PresentationText, error) {
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	scenes := o.readyScenes()
	if len(scenes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no ready scenes; generate scenes first")
	}

	o.mu.Lock()
	plan := o.planImage
	o.mu.Unlock()

	p := buildCopyPrompt(language, len(scenes))
	refs := make([]gemini.Image, 0, len(scenes)+1)
	if plan != nil {
		refs = append(refs, *plan)
	}
	for _, sc := range scenes {
		refs = append(refs, *sc.Current)
	}

	var text deck.PresentationText
	if err := o.gemini.GenerateJSON(ctx, p, refs, &text); err != nil {
		return nil, err
	}
	if len(text.Scenes) < len(scenes) {
		// Pad missing per-scene copy rather than failing the whole deck.
		for i := len(text.Scenes); i < len(scenes); i++ {
			text.Scenes = append(text.Scenes, deck.SceneCopy{
				Title: fmtViewpointTitle(scenes[i].ViewpointIndex),
			})
		}
	}

	o.mu.Lock()
	o.presText = &text
	o.mu.Unlock()
	return &text, nil
}

// UpdatePresentationText replaces the copy wholesale. The next slide render
// regenerates every slide from it.
func (o *Orchestrator) UpdatePresentationText(text deck.PresentationText) {
	o.mu.Lock()
	o.presText = &text
	o.mu.Unlock()
}

// RenderSlides paints the full deck for the chosen theme.
func (o *Orchestrator) RenderSlides(themeName string) ([]*image.RGBA, error) {
	o.mu.Lock()
	text := o.presText
	plan := o.planImage
	o.mu.Unlock()
	if text == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no presentation text; generate it first")
	}

	scenes := o.readyScenes()
	if len(scenes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no ready scenes to render")
	}

	sceneImages := make([]deck.SceneImage, 0, len(scenes))
	for i, sc := range scenes {
		img, err := decodeImage(sc.Current)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput,
				fmtViewpointTitle(sc.ViewpointIndex)+" image is not decodable")
		}
		entry := deck.SceneImage{ViewpointIndex: sc.ViewpointIndex, Image: img}
		if i < len(text.Scenes) {
			entry.Title = text.Scenes[i].Title
			entry.Description = text.Scenes[i].Description
		}
		sceneImages = append(sceneImages, entry)
	}

	var planImg image.Image
	if plan != nil {
		if img, err := decodeImage(plan); err == nil {
			planImg = img
		}
	}

	slides, err := o.renderer.RenderDeck(*text, planImg, sceneImages, deck.ThemeByName(themeName))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRender, "render deck")
	}
	return slides, nil
}

// ExportDeck renders the deck and persists it, returning the archive URL.
func (o *Orchestrator) ExportDeck(requestID, themeName string, onProgress ProgressCallback) (string, error) {
	emit := func(stage, message string, progress int) {
		if onProgress != nil {
			onProgress(ProgressEvent{Stage: stage, Message: message, Progress: progress})
		}
	}

	emit("rendering", "rendering slides", 20)
	slides, err := o.RenderSlides(themeName)
	if err != nil {
		return "", err
	}

	emit("exporting", "writing deck archive", 70)
	url, err := o.storage.SaveDeck(requestID, slides)
	if err != nil {
		return "", err
	}

	emit("complete", "deck exported", 100)
	o.logger.Info("deck export complete", "request_id", requestID, "slides", len(slides), "url", url)
	return url, nil
}

// --- helpers ---

func (o *Orchestrator) readyScenes() []scene.Scene {
	all := o.scenes.List()
	out := all[:0:0]
	for _, sc := range all {
		if sc.Status == scene.StatusReady && sc.Current != nil {
			out = append(out, sc)
		}
	}
	return out
}

func decodeImage(img *gemini.Image) (image.Image, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	return decoded, err
}

func fmtViewpointTitle(index int) string {
	return fmt.Sprintf("Viewpoint %d", index)
}

func buildCopyPrompt(language string, sceneCount int) string {
	if language == "" {
		language = "en"
	}
	return `You are a presentation copywriter for an interior design studio.
The attached images are a furnished floor plan followed by ` + fmt.Sprint(sceneCount) + ` interior viewpoint photographs.
Write the full presentation copy and output JSON only:
{
  "title": "presentation title",
  "subtitle": "one-line subtitle",
  "concept_title": "heading for the design concept slide",
  "concepts": [{"title": "short concept name", "description": "one sentence"}],
  "scenes": [{"title": "room name", "description": "two sentences about this viewpoint"}],
  "conclusion_title": "closing heading",
  "conclusion_body": "a short closing paragraph"
}
Provide exactly one scenes entry per viewpoint photograph, in order.
Language: ` + language + `.`
}
